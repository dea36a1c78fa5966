// Command measure измеряет вытянутый предмет на снимке или в потоке кадров из каталога.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/maruel/interrupt"

	"measure-bot/config"
	app "measure-bot/internal/application"
	"measure-bot/internal/container"
	"measure-bot/internal/domain/entity"
	"measure-bot/internal/infrastructure/framesource"
	"measure-bot/internal/infrastructure/vision"
)

type options struct {
	in       string
	dir      string
	overlay  string
	backend  string
	ppu      float64
	card     bool
	loop     bool
	unitName string
}

// output — JSON-ответ одиночного измерения.
type output struct {
	Result      *entity.DetectionResult  `json:"result"`
	Calibration *entity.CalibrationState `json:"calibration,omitempty"`
	Length      float64                  `json:"length,omitempty"`
	Width       float64                  `json:"width,omitempty"`
	Girth       float64                  `json:"girth,omitempty"`
	Unit        entity.Unit              `json:"unit,omitempty"`
}

func main() {
	var opts options
	flag.StringVar(&opts.in, "in", "", "image file to measure once")
	flag.StringVar(&opts.dir, "dir", "", "directory of frames to stream through the stability controller")
	flag.StringVar(&opts.overlay, "overlay", "", "write annotated image here (jpg, png or webp)")
	flag.StringVar(&opts.backend, "backend", "", "vision backend: auto, cpu or opencv (overrides VISION_BACKEND)")
	flag.Float64Var(&opts.ppu, "ppu", 0, "known scale in pixels per unit")
	flag.BoolVar(&opts.card, "card", false, "calibrate from a reference card in the first frame")
	flag.BoolVar(&opts.loop, "loop", false, "cycle the frame directory until interrupted")
	flag.StringVar(&opts.unitName, "unit", "", "output unit: in or cm (overrides DEFAULT_UNIT)")
	flag.Parse()

	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

func run(opts options) error {
	if (opts.in == "") == (opts.dir == "") {
		return errors.New("exactly one of -in or -dir is required")
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if opts.backend != "" {
		cfg.VisionBackend = opts.backend
	}
	if opts.unitName != "" {
		if cfg.DefaultUnit, err = entity.ParseUnit(opts.unitName); err != nil {
			return err
		}
	}

	engine, err := vision.Initialize(container.VisionConfig(cfg))
	if err != nil {
		return err
	}
	calibration := app.NewCalibrationManager(vision.NewCardDetector(), cfg.DefaultUnit, cfg.ScreenPPI)
	if opts.ppu > 0 {
		// масштаб задан напрямую: отрезок в ppu пикселей равен одной единице
		if _, err := calibration.SetManual(entity.Pt(0, 0), entity.Pt(opts.ppu, 0), 1, cfg.DefaultUnit); err != nil {
			return err
		}
	}

	interrupt.HandleCtrlC()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-interrupt.Channel
		cancel()
	}()

	if opts.in != "" {
		return measureOnce(ctx, opts, cfg, engine, calibration)
	}
	return stream(ctx, opts, cfg, engine, calibration)
}

func measureOnce(ctx context.Context, opts options, cfg *config.Config, engine *vision.Engine, calibration *app.CalibrationManager) error {
	data, err := os.ReadFile(opts.in)
	if err != nil {
		return err
	}
	log.Printf("measure: %s (%s)", opts.in, humanize.Bytes(uint64(len(data))))
	frame, err := framesource.Decode(data, cfg.MaxFrameSide)
	if err != nil {
		return err
	}
	if opts.card {
		if _, err := calibration.AutoCalibrate(ctx, frame); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.DetectionBudget)
	defer cancel()
	result, err := engine.Detect(ctx, frame)
	if err != nil {
		return err
	}

	out := output{Result: result}
	if state := calibration.State(); state.Calibrated() {
		m := app.NewMeasurement(result, state, cfg.DefaultUnit)
		out.Calibration = &state
		out.Length, out.Width, out.Girth, out.Unit = m.Length, m.Width, m.Girth, m.Unit
	}
	if opts.overlay != "" {
		if err := writeOverlay(opts.overlay, frame, result); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func stream(ctx context.Context, opts options, cfg *config.Config, engine *vision.Engine, calibration *app.CalibrationManager) error {
	source, err := framesource.NewDirectorySource(opts.dir, cfg.MaxFrameSide, opts.loop)
	if err != nil {
		return err
	}
	log.Printf("measure: streaming %d frames from %s every %s", source.Len(), source.Name(), cfg.DetectionInterval)

	if opts.card && !calibration.Calibrated() {
		frame, err := source.Next(ctx)
		if err != nil {
			return err
		}
		if _, err := calibration.AutoCalibrate(ctx, frame); err != nil {
			return err
		}
	}
	if !calibration.Calibrated() {
		return fmt.Errorf("%w: pass -ppu or -card", entity.ErrUncalibrated)
	}

	worker := app.NewDetectionWorker(engine, cfg.DetectionBudget)
	defer worker.Stop()
	stability := app.NewStabilityController(container.StabilityConfig(cfg), calibration)

	enc := json.NewEncoder(os.Stdout)
	var encErr error
	session := app.NewLiveSession(source, worker, stability, cfg.DetectionInterval, func(e app.SessionEvent) {
		if e.Update.Changed {
			encErr = errors.Join(encErr, enc.Encode(e.Update.Event))
		}
		if c := e.Update.Capture; c != nil {
			encErr = errors.Join(encErr, enc.Encode(c))
			if opts.overlay != "" {
				if err := writeOverlay(opts.overlay, e.Frame, &c.Captured); err != nil {
					log.Printf("measure: overlay: %v", err)
				}
			}
		}
	})
	if err := session.Run(ctx); err != nil {
		return err
	}
	return encErr
}

func writeOverlay(path string, frame *entity.Frame, result *entity.DetectionResult) error {
	format, err := framesource.FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := vision.NewRenderer(format, 90).Highlight(frame, result)
	if err != nil {
		return err
	}
	log.Printf("measure: overlay %s (%s)", path, humanize.Bytes(uint64(len(data))))
	return os.WriteFile(path, data, 0o644)
}
