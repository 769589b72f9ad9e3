// Package ytdlp adapts yt-dlp, driven through github.com/lrstanley/go-ytdlp,
// to the engine.Engine contract.
//
// Metadata comes from a single flat JSON dump so playlists resolve without
// fetching every member. Fetches stream progress through go-ytdlp's progress
// callback and report the final filename from the extracted info. yt-dlp
// failures are classified into services sentinel errors so the retry policy
// can recognise permanent failures such as private or removed videos.
package ytdlp
