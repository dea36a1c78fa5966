package vision

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"measure-bot/internal/domain/entity"
)

func TestCardDetector_FindsCard(t *testing.T) {
	f := solidFrame(400, 300, tableColor)
	fillRect(f, image.Rect(100, 80, 270, 187), cardWhite)

	m, err := NewCardDetector().DetectReference(context.Background(), f)
	require.NoError(t, err)
	require.InDelta(t, 170, m.LongSidePixels, 2)
	require.InDelta(t, 107, m.ShortSidePixels, 2)
	require.Greater(t, m.Score, 0.8)
}

func TestCardDetector_RejectsWrongAspect(t *testing.T) {
	f := solidFrame(400, 300, tableColor)
	fillRect(f, image.Rect(100, 80, 220, 200), cardWhite)

	_, err := NewCardDetector().DetectReference(context.Background(), f)
	require.True(t, errors.Is(err, entity.ErrReferenceNotFound))
}

func TestCardDetector_EmptyFrame(t *testing.T) {
	_, err := NewCardDetector().DetectReference(context.Background(), solidFrame(100, 100, tableColor))
	require.True(t, errors.Is(err, entity.ErrReferenceNotFound))
}

func TestOtsuThreshold_Bimodal(t *testing.T) {
	gray := make([]uint8, 100)
	for i := range gray {
		if i < 60 {
			gray[i] = 30
		} else {
			gray[i] = 220
		}
	}
	th := otsuThreshold(gray)
	require.GreaterOrEqual(t, th, uint8(30))
	require.Less(t, th, uint8(220))
}

func TestMinAreaRect_AxisAligned(t *testing.T) {
	hull := []image.Point{{0, 0}, {9, 0}, {9, 4}, {0, 4}}
	r := minAreaRect(hull)
	require.InDelta(t, 10, r.long, 1e-9)
	require.InDelta(t, 5, r.short, 1e-9)
}
