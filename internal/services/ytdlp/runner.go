package ytdlp

import (
	"context"
	"strconv"
	"strings"
	"time"

	goytdlp "github.com/lrstanley/go-ytdlp"

	"tubeq/internal/engine"
)

// Update is the subset of a yt-dlp progress report the client consumes.
type Update struct {
	Status          string
	DownloadedBytes int64
	TotalBytes      int64
	Started         time.Time
	ETA             time.Duration
	Filename        string
	Title           string
}

// Output is what a finished yt-dlp invocation left behind.
type Output struct {
	Stdout   string
	Stderr   string
	Filename string
}

// Runner executes yt-dlp. The default implementation uses go-ytdlp; tests
// substitute a fake.
type Runner interface {
	DumpJSON(ctx context.Context, url string, auth Auth) (Output, error)
	Download(ctx context.Context, url string, opts engine.Options, interval time.Duration, onUpdate func(Update)) (Output, error)
}

// Auth carries the request settings shared by metadata and fetch calls.
type Auth struct {
	CookiesFile string
	Proxy       string
}

type libraryRunner struct{}

func (libraryRunner) DumpJSON(ctx context.Context, url string, auth Auth) (Output, error) {
	cmd := goytdlp.New().
		SkipDownload().
		FlatPlaylist().
		DumpSingleJSON()
	applyAuth(cmd, auth)

	res, err := cmd.Run(ctx, url)
	return outputOf(res), err
}

func (libraryRunner) Download(ctx context.Context, url string, opts engine.Options, interval time.Duration, onUpdate func(Update)) (Output, error) {
	cmd := goytdlp.New().
		NoPlaylist().
		RestrictFilenames().
		Format(opts.Format).
		Output(opts.OutputTemplate)
	if opts.RateLimitBytes > 0 {
		cmd.LimitRate(strconv.FormatInt(opts.RateLimitBytes, 10))
	}
	if opts.Subtitles {
		cmd.WriteSubs().WriteAutoSubs()
		if len(opts.SubtitleLangs) > 0 {
			cmd.SubLangs(strings.Join(opts.SubtitleLangs, ","))
		}
	}
	if opts.EmbedMetadata {
		cmd.EmbedMetadata()
	}
	applyAuth(cmd, Auth{CookiesFile: opts.CookiesFile, Proxy: opts.Proxy})

	cmd.ProgressFunc(interval, func(update goytdlp.ProgressUpdate) {
		u := Update{
			Status:          string(update.Status),
			DownloadedBytes: int64(update.DownloadedBytes),
			TotalBytes:      int64(update.TotalBytes),
			Started:         update.Started,
			ETA:             update.ETA(),
			Filename:        update.Filename,
		}
		if update.Info != nil && update.Info.Title != nil {
			u.Title = *update.Info.Title
		}
		onUpdate(u)
	})

	res, err := cmd.Run(ctx, url)
	out := outputOf(res)
	if err == nil && res != nil {
		if info, infoErr := res.GetExtractedInfo(); infoErr == nil && len(info) > 0 && info[0].Filename != nil {
			out.Filename = *info[0].Filename
		}
	}
	return out, err
}

func applyAuth(cmd *goytdlp.Command, auth Auth) {
	if auth.CookiesFile != "" {
		cmd.Cookies(auth.CookiesFile)
	}
	if auth.Proxy != "" {
		cmd.Proxy(auth.Proxy)
	}
}

func outputOf(res *goytdlp.Result) Output {
	if res == nil {
		return Output{}
	}
	return Output{Stdout: res.Stdout, Stderr: res.Stderr}
}
