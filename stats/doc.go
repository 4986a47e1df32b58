// Package stats holds the raster math behind zonal statistics: pixel windows from a
// geotransform, categorical histograms and scalar summaries over a zone mask, and the
// long-to-wide pivot of the per-region results. Masks are produced by the caller (GDAL
// rasterisation); this package has no GDAL dependency.
package stats
