//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"measure-bot/internal/domain/entity"
)

// openCVBackend выполняет пиксельные этапы через OpenCV.
type openCVBackend struct{}

func newOpenCVBackend() (Backend, error) {
	if gocv.Version() == "" {
		return nil, errors.New("opencv runtime is not available")
	}
	return openCVBackend{}, nil
}

func (openCVBackend) Name() string { return BackendOpenCV }

// frameToBGR превращает RGBA-буфер кадра в BGR-матрицу.
func frameToBGR(frame *entity.Frame) (gocv.Mat, error) {
	rgba, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC4, frame.Pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("frame to mat: %w", err)
	}
	defer rgba.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(rgba, &bgr, gocv.ColorRGBAToBGR)
	return bgr, nil
}

func matToMask(mat gocv.Mat) (*entity.Mask, error) {
	if mat.Empty() {
		return nil, errors.New("empty mask")
	}
	pix := mat.ToBytes()
	if len(pix) != mat.Cols()*mat.Rows() {
		return nil, fmt.Errorf("unexpected mask size %d", len(pix))
	}
	return &entity.Mask{Width: mat.Cols(), Height: mat.Rows(), Pix: pix}, nil
}

func (openCVBackend) Segment(frame *entity.Frame) (*entity.Mask, error) {
	bgr, err := frameToBGR(frame)
	if err != nil {
		return nil, err
	}
	defer bgr.Close()

	ycrcb := gocv.NewMat()
	defer ycrcb.Close()
	gocv.CvtColor(bgr, &ycrcb, gocv.ColorBGRToYCrCb)

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(bgr, &hsv, gocv.ColorBGRToHSV)

	// В OpenCV каналы идут как Y, Cr, Cb.
	ycrcbMask := gocv.NewMat()
	defer ycrcbMask.Close()
	gocv.InRangeWithScalar(ycrcb,
		gocv.NewScalar(0, skinCrMin, skinCbMin, 0),
		gocv.NewScalar(255, skinCrMax, skinCbMax, 0),
		&ycrcbMask)

	hsvMask := gocv.NewMat()
	defer hsvMask.Close()
	gocv.InRangeWithScalar(hsv,
		gocv.NewScalar(skinHMin, math.Ceil(skinSMin), skinVMin, 0),
		gocv.NewScalar(skinHMax, math.Floor(skinSMax), skinVMax, 0),
		&hsvMask)

	combined := gocv.NewMat()
	defer combined.Close()
	gocv.BitwiseOr(ycrcbMask, hsvMask, &combined)

	return matToMask(combined)
}

func (openCVBackend) Clean(mask *entity.Mask, radius int) (*entity.Mask, error) {
	src, err := gocv.NewMatFromBytes(mask.Height, mask.Width, gocv.MatTypeCV8U, mask.Pix)
	if err != nil {
		return nil, fmt.Errorf("mask to mat: %w", err)
	}
	defer src.Close()

	size := 2*radius + 1
	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(size, size))
	defer kernel.Close()

	closed := gocv.NewMat()
	defer closed.Close()
	gocv.MorphologyEx(src, &closed, gocv.MorphClose, kernel)

	opened := gocv.NewMat()
	defer opened.Close()
	gocv.MorphologyEx(closed, &opened, gocv.MorphOpen, kernel)

	return matToMask(opened)
}

func (openCVBackend) DetectLines(frame *entity.Frame, p LineParams) ([]entity.Segment, error) {
	bgr, err := frameToBGR(frame)
	if err != nil {
		return nil, err
	}
	defer bgr.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(bgr, &gray, gocv.ColorBGRToGray)

	blur := gocv.NewMat()
	defer blur.Close()
	gocv.GaussianBlur(gray, &blur, image.Pt(p.BlurKernel, p.BlurKernel), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blur, &edges, float32(p.CannyLow), float32(p.CannyHigh))

	lines := gocv.NewMat()
	defer lines.Close()
	gocv.HoughLinesPWithParams(edges, &lines, 1, math.Pi/180, p.Votes, float32(p.MinLineLength), float32(p.MaxLineGap))

	segments := make([]entity.Segment, 0, lines.Rows())
	for i := 0; i < lines.Rows(); i++ {
		v := lines.GetVeciAt(i, 0)
		segments = append(segments, entity.Segment{
			A: entity.Pt(float64(v[0]), float64(v[1])),
			B: entity.Pt(float64(v[2]), float64(v[3])),
		})
	}
	return segments, nil
}
