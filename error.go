package zonalstats

import "errors"

var (
	ErrGdalDriverCreate  = errors.New("gdal driver create err")
	ErrGdalDriverOpen    = errors.New("gdal driver open err")
	ErrGdalEmptyShp      = errors.New("gdal boundary layer is empty")
	ErrUnknownBoundary   = errors.New("unknown boundary")
	ErrBoundaryNotFound  = errors.New("boundary dataset not found")
	ErrUnsupportedVector = errors.New("unsupported vector format")
	ErrInvalidTif        = errors.New("invalid tif")
	ErrWrongTif          = errors.New("wrong tif")
	ErrTifReadFailed     = errors.New("tif read failed")
	ErrOutputDirMissing  = errors.New("output directory missing")
	ErrEmptyJoin         = errors.New("no boundary feature joined with stats")
	ErrDuplicateYear     = errors.New("more than one raster for the same year")
)
