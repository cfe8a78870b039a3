//go:build probe

package probe

import (
	"context"
	"fmt"
	"time"

	"clipmaker/domain/video"

	"gocv.io/x/gocv"
)

// Probe opens path with OpenCV and reads its stream properties
func (p *Prober) Probe(ctx context.Context, path string) (video.ClipInfo, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return video.ClipInfo{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer vc.Close()

	if !vc.IsOpened() {
		return video.ClipInfo{}, fmt.Errorf("failed to open %s", path)
	}

	info := video.ClipInfo{
		Frames: int(vc.Get(gocv.VideoCaptureFrameCount)),
		FPS:    vc.Get(gocv.VideoCaptureFPS),
		Width:  int(vc.Get(gocv.VideoCaptureFrameWidth)),
		Height: int(vc.Get(gocv.VideoCaptureFrameHeight)),
	}
	if info.FPS > 0 {
		info.Duration = time.Duration(float64(info.Frames) / info.FPS * float64(time.Second))
	}

	return info, nil
}
