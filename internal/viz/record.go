package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"
)

const (
	dotSize   = 4
	gifDelay  = 2
	maxFrames = 1800
)

// Recorder collects canvas frames for an animated GIF.
type Recorder struct {
	frames []*image.Paletted
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Len() int { return len(r.frames) }

// Capture rasterises the canvas, one square per lit dot. Frames past the
// cap are ignored.
func (r *Recorder) Capture(c *Canvas) {
	if len(r.frames) >= maxFrames {
		return
	}
	img := image.NewPaletted(image.Rect(0, 0, c.Width*2*dotSize, c.Height*4*dotSize), color.Palette{color.Black, color.White})
	c.EachDot(func(x, y int) {
		for py := 0; py < dotSize; py++ {
			for px := 0; px < dotSize; px++ {
				img.SetColorIndex(x*dotSize+px, y*dotSize+py, 1)
			}
		}
	})
	r.frames = append(r.frames, img)
}

// Save encodes the frames as a looping GIF and resets the recorder.
func (r *Recorder) Save(path string) error {
	if len(r.frames) == 0 {
		return fmt.Errorf("no frames recorded")
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, gifDelay)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := gif.EncodeAll(f, &anim); err != nil {
		return err
	}
	r.frames = nil
	return nil
}
