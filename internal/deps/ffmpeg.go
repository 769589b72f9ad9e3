package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ffmpegOrigin records where a usable ffmpeg was found.
type ffmpegOrigin string

const (
	originBesideYtDlp ffmpegOrigin = "beside yt-dlp"
	originPath        ffmpegOrigin = "on PATH"
)

type ffmpegCandidate struct {
	path   string
	origin ffmpegOrigin
}

// CheckFFmpegForYtDlp reports the ffmpeg yt-dlp will run when it merges
// separate audio and video streams or embeds subtitles.
//
// Without --ffmpeg-location, yt-dlp looks in its own install directory
// before PATH. Standalone yt-dlp releases ship that way, so a bundled ffmpeg
// shadows any system copy. The Detail field names the winning location and
// warns when ffprobe is missing from it, since yt-dlp probes merged output
// with the ffprobe found next to ffmpeg.
func CheckFFmpegForYtDlp(ytdlpCommand string) Status {
	result := Status{
		Name:        "FFmpeg",
		Command:     "ffmpeg",
		Description: "Merges formats and embeds subtitles for yt-dlp",
	}

	for _, candidate := range ffmpegCandidates(ytdlpCommand) {
		if !isExecutableFile(candidate.path) {
			continue
		}
		result.Command = candidate.path
		result.Available = true
		result.Detail = fmt.Sprintf("found %s", candidate.origin)
		if !isExecutableFile(companion(candidate.path, "ffprobe")) {
			result.Detail += "; ffprobe missing alongside it"
		}
		return result
	}

	result.Detail = "ffmpeg not found beside yt-dlp or on PATH"
	return result
}

// ffmpegCandidates lists lookup locations in the order yt-dlp tries them.
func ffmpegCandidates(ytdlpCommand string) []ffmpegCandidate {
	var candidates []ffmpegCandidate
	if name := strings.TrimSpace(ytdlpCommand); name != "" {
		if resolved, err := exec.LookPath(name); err == nil {
			candidates = append(candidates, ffmpegCandidate{
				path:   companion(resolved, "ffmpeg"),
				origin: originBesideYtDlp,
			})
		}
	}
	if onPath, err := exec.LookPath("ffmpeg"); err == nil {
		candidates = append(candidates, ffmpegCandidate{path: onPath, origin: originPath})
	}
	return candidates
}

// companion returns the path of tool in the same directory as binary.
func companion(binary, tool string) string {
	if runtime.GOOS == "windows" {
		tool += ".exe"
	}
	return filepath.Join(filepath.Dir(binary), tool)
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
