// Package exifmeta extracts capture metadata from uploaded images at the
// intake boundary, so the verification pipeline evaluates declared fields
// instead of re-reading image bytes.
package exifmeta

import (
	"io"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// Metadata holds the capture fields the pipeline's EXIF step evaluates.
type Metadata struct {
	CaptureTime *time.Time
	CameraModel string
	Lat         *float64
	Lng         *float64
}

// Extract reads EXIF data from the image. An image without EXIF data returns
// an error; callers treat that as "no metadata", not as a failure.
func Extract(r io.Reader) (Metadata, error) {
	decoded, err := exif.Decode(r)
	if err != nil {
		return Metadata{}, err
	}

	meta := Metadata{}

	if captured, err := decoded.DateTime(); err == nil {
		meta.CaptureTime = &captured
	}

	if tag, err := decoded.Get(exif.Model); err == nil {
		if model, err := tag.StringVal(); err == nil {
			meta.CameraModel = model
		}
	}

	if lat, lng, err := decoded.LatLong(); err == nil {
		meta.Lat = &lat
		meta.Lng = &lng
	}

	return meta, nil
}
