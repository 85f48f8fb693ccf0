package assemble

import (
	"fmt"
	"strings"

	"github.com/clipwright/clipwright/internal/domain"
)

// scaleFilter letterboxes any source into the target frame without
// distortion.
func scaleFilter(width, height int) string {
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1",
		width, height, width, height,
	)
}

// segmentArgs normalizes one asset to its scene duration: trim long clips,
// loop short ones, animate still images, and strip any source audio.
func segmentArgs(asset domain.VisualAsset, srcDur, targetDur float64, opts Options, outPath string) []string {
	var args []string

	switch {
	case asset.Kind == domain.AssetKindImage:
		args = append(args, "-loop", "1", "-i", asset.LocalPath)
	case srcDur > 0 && srcDur < targetDur:
		loops := int(targetDur/srcDur) + 1
		args = append(args, "-stream_loop", fmt.Sprintf("%d", loops), "-i", asset.LocalPath)
	default:
		args = append(args, "-i", asset.LocalPath)
	}

	return append(args,
		"-t", fmt.Sprintf("%.3f", targetDur),
		"-vf", scaleFilter(opts.Width, opts.Height),
		"-r", fmt.Sprintf("%d", opts.FPS),
		"-c:v", "libx264",
		"-preset", opts.Preset,
		"-b:v", opts.VideoBitrate,
		"-pix_fmt", "yuv420p",
		"-an",
		outPath,
	)
}

// concatArgs joins pre-normalized segments via ffmpeg's concat demuxer.
// Segments share codec and frame geometry, so stream copy is safe.
func concatArgs(listPath, outPath string) []string {
	return []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outPath,
	}
}

// concatList renders the file-list body the concat demuxer expects.
func concatList(paths []string) string {
	lines := make([]string, 0, len(paths))
	for _, p := range paths {
		lines = append(lines, fmt.Sprintf("file '%s'", p))
	}
	return strings.Join(lines, "\n")
}

// xfadeArgs joins segments with crossfade transitions. Each consecutive pair
// is bridged by one xfade; the running offset accounts for the duration the
// previous transitions consumed.
func xfadeArgs(segments []string, durations []float64, style string, transitionSec float64, opts Options, outPath string) []string {
	var args []string
	for _, seg := range segments {
		args = append(args, "-i", seg)
	}

	graph, outLabel := xfadeGraph(durations, style, transitionSec)
	return append(args,
		"-filter_complex", graph,
		"-map", outLabel,
		"-r", fmt.Sprintf("%d", opts.FPS),
		"-c:v", "libx264",
		"-preset", opts.Preset,
		"-b:v", opts.VideoBitrate,
		"-pix_fmt", "yuv420p",
		"-an",
		outPath,
	)
}

func xfadeGraph(durations []float64, style string, transitionSec float64) (graph, outLabel string) {
	var parts []string
	prev := "[0:v]"
	offset := durations[0] - transitionSec

	for i := 1; i < len(durations); i++ {
		label := fmt.Sprintf("[v%d]", i)
		parts = append(parts, fmt.Sprintf(
			"%s[%d:v]xfade=transition=%s:duration=%.3f:offset=%.3f%s",
			prev, i, style, transitionSec, offset, label,
		))
		offset += durations[i] - transitionSec
		prev = label
	}

	return strings.Join(parts, ";"), prev
}

// loopToDurationArgs stretches a video track to cover the audio by looping
// it, then cutting at the target duration.
func loopToDurationArgs(videoPath string, videoDur, targetDur float64, opts Options, outPath string) []string {
	loops := int(targetDur/videoDur) + 1
	return []string{
		"-stream_loop", fmt.Sprintf("%d", loops),
		"-i", videoPath,
		"-t", fmt.Sprintf("%.3f", targetDur),
		"-c:v", "libx264",
		"-preset", opts.Preset,
		"-b:v", opts.VideoBitrate,
		"-pix_fmt", "yuv420p",
		"-an",
		outPath,
	}
}

// trimToDurationArgs cuts a video track at the target duration.
func trimToDurationArgs(videoPath string, targetDur float64, opts Options, outPath string) []string {
	return []string{
		"-i", videoPath,
		"-t", fmt.Sprintf("%.3f", targetDur),
		"-c:v", "libx264",
		"-preset", opts.Preset,
		"-b:v", opts.VideoBitrate,
		"-pix_fmt", "yuv420p",
		"-an",
		outPath,
	}
}

// muxArgs attaches the narration to the finished video track.
func muxArgs(videoPath, audioPath string, opts Options, outPath string) []string {
	return []string{
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", opts.AudioBitrate,
		"-shortest",
		"-movflags", "+faststart",
		outPath,
	}
}
