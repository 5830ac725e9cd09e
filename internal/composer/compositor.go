package composer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/amankumarsingh77/shorts-assembler/internal/config"
	"github.com/amankumarsingh77/shorts-assembler/internal/models"
	"github.com/amankumarsingh77/shorts-assembler/internal/subtitle"
	"github.com/amankumarsingh77/shorts-assembler/pkg/logger"
	"github.com/amankumarsingh77/shorts-assembler/pkg/utils"
)

var (
	ErrBackgroundMusic = errors.New("background music unavailable")
	ErrSubtitleOverlay = errors.New("subtitle overlay unavailable")
)

type MeasurerFactory func(fontFile string, size float64) (subtitle.Measurer, error)

type Compositor struct {
	runner      utils.CommandRunner
	prober      *Prober
	ffmpegPath  string
	fps         int
	fontDir     string
	songDir     string
	logger      logger.Logger
	newMeasurer MeasurerFactory
}

func NewCompositor(cfg *config.Config, runner utils.CommandRunner, log logger.Logger) *Compositor {
	fps := cfg.Pipeline.FPS
	if fps <= 0 {
		fps = 30
	}
	ffmpegPath := cfg.Pipeline.FFmpegPath
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Compositor{
		runner:     runner,
		prober:     NewProber(runner, cfg.Pipeline.FFprobePath),
		ffmpegPath: ffmpegPath,
		fps:        fps,
		fontDir:    cfg.Pipeline.FontDir,
		songDir:    cfg.Pipeline.SongDir,
		logger:     log,
		newMeasurer: func(fontFile string, size float64) (subtitle.Measurer, error) {
			return subtitle.NewFontMeasurer(fontFile, size)
		},
	}
}

// WithMeasurerFactory swaps the font measurer, mainly for tests.
func (c *Compositor) WithMeasurerFactory(f MeasurerFactory) *Compositor {
	c.newMeasurer = f
	return c
}

func (c *Compositor) Prober() *Prober {
	return c.prober
}

type CombineInput struct {
	Index      int
	Clips      []models.RawClip
	Target     float64
	Params     models.VideoParams
	OutputPath string
	Rand       *rand.Rand
}

type AssemblyResult struct {
	Segments   []ClipSegment
	Duration   float64
	OutputPath string
}

// Assemble plans the clip track for one output: pool, pack, normalize and
// transitions. It does no I/O.
func (c *Compositor) Assemble(in CombineInput) (*AssemblyResult, error) {
	rnd := in.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	pool := BuildPool(in.Clips, in.Params.ClipDuration, in.Params.ConcatMode, rnd)
	packed, err := Pack(pool, in.Target, in.Params.ClipDuration)
	if err != nil {
		return nil, err
	}

	frame := in.Params.Aspect.Resolution()
	applier := NewTransitionApplier(rnd, in.Params.ClipDuration)
	segments := make([]ClipSegment, 0, len(packed))
	for _, seg := range packed {
		seg = Normalize(seg, frame)
		seg = applier.Apply(seg, in.Params.TransitionMode)
		segments = append(segments, seg)
	}

	total := TotalDuration(segments)
	if math.Abs(total-in.Target) > 1/float64(c.fps) {
		return nil, fmt.Errorf("assembled duration %.3fs does not match target %.3fs", total, in.Target)
	}
	return &AssemblyResult{Segments: segments, Duration: total}, nil
}

// Combine renders the planned segments and concatenates them into a silent
// clip track at OutputPath.
func (c *Compositor) Combine(ctx context.Context, in CombineInput) (*AssemblyResult, error) {
	result, err := c.Assemble(in)
	if err != nil {
		return nil, err
	}

	workDir, err := os.MkdirTemp(filepath.Dir(in.OutputPath), fmt.Sprintf("combine-%d-", in.Index))
	if err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	c.logger.Infof("Combine %d: rendering %d segments (%.2fs)", in.Index, len(result.Segments), result.Duration)
	rendered, err := c.renderSegments(ctx, result.Segments, workDir, in.Params.Threads)
	if err != nil {
		return nil, fmt.Errorf("encoding failed: %w", err)
	}
	if err := c.stitchSegments(ctx, rendered, workDir, in.OutputPath); err != nil {
		return nil, fmt.Errorf("stitching failed: %w", err)
	}
	result.OutputPath = in.OutputPath
	return result, nil
}

func (c *Compositor) renderSegments(ctx context.Context, segments []ClipSegment, workDir string, threads int) ([]string, error) {
	if threads < 1 {
		threads = 1
	}
	sem := make(chan struct{}, threads)
	var wg sync.WaitGroup
	rendered := make([]string, len(segments))
	errChan := make(chan error, 1)

	for i, seg := range segments {
		sem <- struct{}{}
		wg.Add(1)

		go func(idx int, seg ClipSegment) {
			defer func() {
				<-sem
				wg.Done()
			}()

			outputPath := filepath.Join(workDir, fmt.Sprintf("segment_%03d.mp4", idx))
			res, err := c.runner.Run(ctx, c.ffmpegPath, c.segmentArgs(seg, outputPath)...)
			if err != nil {
				select {
				case errChan <- fmt.Errorf("segment %d failed: %v, stderr: %s", idx, err, utils.TailOutput(res.Stderr, 512)):
				default:
				}
				return
			}
			rendered[idx] = outputPath
		}(i, seg)
	}

	wg.Wait()
	close(errChan)

	if err := <-errChan; err != nil {
		return nil, err
	}
	return rendered, nil
}

func (c *Compositor) segmentArgs(seg ClipSegment, outputPath string) []string {
	return []string{
		"-hide_banner", "-nostdin", "-y",
		"-ss", ff(seg.Start),
		"-t", ff(seg.Duration()),
		"-i", seg.Source.Path,
		"-filter_complex", c.segmentGraph(seg),
		"-map", "[vout]",
		"-an",
		"-r", strconv.Itoa(c.fps),
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-threads", "1",
		outputPath,
	}
}

// segmentGraph chains the segment's transforms between a timestamp reset and
// the final pixel format conversion.
func (c *Compositor) segmentGraph(seg ClipSegment) string {
	parts := []string{fmt.Sprintf("[0:v]setpts=PTS-STARTPTS,fps=%d[s0]", c.fps)}
	label := "s0"
	for i, t := range seg.transforms {
		next := fmt.Sprintf("s%d", i+1)
		parts = append(parts, t.filter(label, next, seg, c.fps))
		label = next
	}
	parts = append(parts, fmt.Sprintf("[%s]format=yuv420p[vout]", label))
	return strings.Join(parts, ";")
}

func (c *Compositor) stitchSegments(ctx context.Context, segments []string, workDir, outputPath string) error {
	concatListPath := filepath.Join(workDir, "concat_list.txt")
	concatFile, err := os.Create(concatListPath)
	if err != nil {
		return fmt.Errorf("failed to create concat list: %w", err)
	}
	for _, segment := range segments {
		absPath, err := filepath.Abs(segment)
		if err != nil {
			concatFile.Close()
			return fmt.Errorf("failed to get absolute path for segment: %w", err)
		}
		if _, err := fmt.Fprintf(concatFile, "file '%s'\n", strings.ReplaceAll(absPath, "'", `'\''`)); err != nil {
			concatFile.Close()
			return fmt.Errorf("failed to write to concat list: %w", err)
		}
	}
	if err := concatFile.Close(); err != nil {
		return fmt.Errorf("failed to close concat list: %w", err)
	}

	res, err := c.runner.Run(ctx, c.ffmpegPath,
		"-hide_banner", "-nostdin",
		"-f", "concat",
		"-safe", "0",
		"-i", concatListPath,
		"-c", "copy",
		"-an",
		"-movflags", "+faststart",
		"-y", outputPath,
	)
	if err != nil {
		return fmt.Errorf("ffmpeg concat failed: %v, stderr: %s", err, utils.TailOutput(res.Stderr, 512))
	}
	return nil
}

type RenderInput struct {
	Index      int
	VideoPath  string
	AudioFile  string
	Duration   float64
	Subtitles  []models.SubtitleEntry
	Params     models.VideoParams
	OutputPath string
	Rand       *rand.Rand
}

type RenderResult struct {
	OutputPath      string
	BackgroundTrack string
	Overlays        int
	// Warnings are the non-fatal problems the render worked around.
	Warnings []error
}

// Render lays subtitles over the clip track, mixes the soundtrack and writes
// the final video.
func (c *Compositor) Render(ctx context.Context, in RenderInput) (*RenderResult, error) {
	rnd := in.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	result := &RenderResult{OutputPath: in.OutputPath}

	workDir, err := os.MkdirTemp(filepath.Dir(in.OutputPath), fmt.Sprintf("render-%d-", in.Index))
	if err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	mix := AudioMix{
		VoiceFile:   in.AudioFile,
		VoiceVolume: in.Params.VoiceVolume,
		BgmVolume:   in.Params.BgmVolume,
		Duration:    in.Duration,
	}
	track, err := c.backgroundTrack(ctx, in.Params, rnd)
	if err != nil {
		result.Warnings = append(result.Warnings, err)
	}
	mix.Background = track
	result.BackgroundTrack = track

	videoGraph := fmt.Sprintf("[0:v]fps=%d[vout]", c.fps)
	if in.Params.SubtitlesOn() && len(in.Subtitles) > 0 {
		graph, n, err := c.subtitleGraph(in, workDir)
		if err != nil {
			result.Warnings = append(result.Warnings, err)
		} else {
			videoGraph = graph
			result.Overlays = n
		}
	}

	scriptPath := filepath.Join(workDir, "filter_graph.txt")
	if err := os.WriteFile(scriptPath, []byte(videoGraph+";\n"+mix.filter(1, "aout")), 0644); err != nil {
		return nil, fmt.Errorf("failed to write filter graph: %w", err)
	}

	threads := in.Params.Threads
	if threads < 1 {
		threads = 1
	}
	args := []string{"-hide_banner", "-nostdin", "-y", "-i", in.VideoPath}
	args = append(args, mix.inputArgs()...)
	args = append(args,
		"-filter_complex_script", scriptPath,
		"-map", "[vout]",
		"-map", "[aout]",
		"-r", strconv.Itoa(c.fps),
		"-c:v", "libx264",
		"-preset", "medium",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
		"-t", ff(in.Duration),
		"-threads", strconv.Itoa(threads),
		"-movflags", "+faststart",
		in.OutputPath,
	)
	res, err := c.runner.Run(ctx, c.ffmpegPath, args...)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg render failed: %v, stderr: %s", err, utils.TailOutput(res.Stderr, 512))
	}
	return result, nil
}

func (c *Compositor) backgroundTrack(ctx context.Context, p models.VideoParams, rnd *rand.Rand) (string, error) {
	track, err := ResolveBackgroundTrack(p.BgmType, p.BgmFile, c.songDir, rnd)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackgroundMusic, err)
	}
	if track == "" {
		return "", nil
	}
	if _, err := c.prober.ProbeDuration(ctx, track); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrBackgroundMusic, track, err)
	}
	return track, nil
}

// subtitleGraph writes one text file per overlay and returns the drawtext
// chain over the clip track.
func (c *Compositor) subtitleGraph(in RenderInput, workDir string) (string, int, error) {
	style := subtitle.StyleFromParams(in.Params, c.fontDir)
	measurer, err := c.newMeasurer(style.FontFile, float64(style.FontSize))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrSubtitleOverlay, err)
	}
	if closer, ok := measurer.(io.Closer); ok {
		defer closer.Close()
	}

	overlays := subtitle.Layout(subtitle.Sanitize(in.Subtitles), in.Params.Aspect.Resolution(), style, measurer)
	if len(overlays) == 0 {
		return "", 0, fmt.Errorf("%w: no usable subtitle entries", ErrSubtitleOverlay)
	}

	filters := make([]string, 0, len(overlays))
	for i, o := range overlays {
		lines := strings.Split(o.Text, "\n")
		lineHeight := float64(o.Height) / float64(len(lines))
		for j, line := range lines {
			textFile := filepath.Join(workDir, fmt.Sprintf("subtitle_%04d_%02d.txt", i, j))
			if err := os.WriteFile(textFile, []byte(line), 0644); err != nil {
				return "", 0, fmt.Errorf("%w: %v", ErrSubtitleOverlay, err)
			}
			filters = append(filters, drawtext(o, textFile, o.Y+float64(j)*lineHeight, style))
		}
	}
	return fmt.Sprintf("[0:v]fps=%d,%s[vout]", c.fps, strings.Join(filters, ",")), len(overlays), nil
}

// drawtext draws one line of an overlay, centered on its own width.
func drawtext(o subtitle.Overlay, textFile string, y float64, style subtitle.Style) string {
	opts := []string{
		"fontfile=" + quoteFilterValue(style.FontFile),
		"textfile=" + quoteFilterValue(textFile),
		"expansion=none",
		fmt.Sprintf("fontsize=%d", style.FontSize),
		"fontcolor=" + style.ForeColor,
		fmt.Sprintf("borderw=%d", int(math.Round(style.StrokeWidth))),
		"bordercolor=" + style.StrokeColor,
		"x=(w-text_w)/2",
		fmt.Sprintf("y=%d", int(math.Round(y))),
		fmt.Sprintf("enable='gte(t,%s)*lt(t,%s)'", ff(o.Start), ff(o.End)),
	}
	if color, ok := style.Background.BoxColor(); ok {
		opts = append(opts, "box=1", "boxcolor="+color, "boxborderw=8")
	}
	return "drawtext=" + strings.Join(opts, ":")
}

func quoteFilterValue(s string) string {
	s = filepath.ToSlash(s)
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
