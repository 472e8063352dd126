// Package video reads replay frames from a video file and annotates archived
// anomaly frames, both through OpenCV.
package video

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

const jpegQuality = 80

var ErrEmptyVideo = errors.New("video has no readable frames")

// Source yields the frames of a video file as JPEGs, rewinding at the end.
type Source struct {
	path    string
	capture *gocv.VideoCapture
	mat     gocv.Mat
}

func Open(path string) (*Source, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open video file at %s: %w", path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("could not open video file at %s", path)
	}
	return &Source{path: path, capture: capture, mat: gocv.NewMat()}, nil
}

func (s *Source) Next() ([]byte, error) {
	if !s.capture.Read(&s.mat) || s.mat.Empty() {
		s.capture.Set(gocv.VideoCapturePosFrames, 0)
		if !s.capture.Read(&s.mat) || s.mat.Empty() {
			return nil, fmt.Errorf("%w: %s", ErrEmptyVideo, s.path)
		}
	}
	return encode(s.mat)
}

func (s *Source) Close() error {
	s.mat.Close()
	return s.capture.Close()
}

// Annotate draws a red border and label on a JPEG frame.
func Annotate(frame []byte, label string) ([]byte, error) {
	red := color.RGBA{R: 255, G: 0, B: 0, A: 0}

	mat, err := gocv.IMDecode(frame, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.New("failed to decode image: empty frame")
	}

	border := image.Rect(2, 2, mat.Cols()-2, mat.Rows()-2)
	if err := gocv.Rectangle(&mat, border, red, 4); err != nil {
		return nil, fmt.Errorf("failed to draw rectangle: %w", err)
	}
	if err := gocv.PutText(&mat, label, image.Pt(10, 30), gocv.FontHersheySimplex, 0.8, red, 2); err != nil {
		return nil, fmt.Errorf("failed to draw text: %w", err)
	}
	return encode(mat)
}

func encode(mat gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, jpegQuality})
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}
