// Package audiotag locates, decodes and rewrites the metadata tags that
// audio files carry around their audio data.
//
// A single stream may hold several tags: an ID3v2 tag before the audio,
// and an APE tag, a Lyrics3 block, a MusicMatch tag and an ID3v1 tag after
// it. FLAC and Ogg streams keep Vorbis comments inside the container.
// audiotag walks both ends of the stream, following each tag to the next,
// and reports every tag with its byte range.
//
// # Quick Start
//
//	file, err := audiotag.Open("song.mp3")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer file.Close()
//
//	for _, t := range file.Tags {
//		fmt.Println(t) // e.g. "APE [4096, 4200) from end"
//	}
//	fmt.Println(file.Fields().GetBest("TIT2", "Title", "TITLE"))
//
// # Supported Formats
//
//   - ID3v2.2, v2.3 and v2.4 (read); v2.3 and v2.4 (write)
//   - ID3v1 and ID3v1.1, with the TAG+ extension
//   - APEv1 and APEv2, including tags with a header and no footer
//   - Lyrics3 and Lyrics3v2
//   - MusicMatch (read only)
//   - Vorbis comments in FLAC (read and write) and Ogg Vorbis, Opus and
//     FLAC streams (read only)
//
// # Damaged Tags
//
// Real files carry tags written by buggy software. By default a truncated
// or malformed tag is skipped or partially decoded and the problem is
// recorded in File.Warnings. WithStrictParsing turns these problems into
// errors that match ErrTruncated or ErrMalformed:
//
//	file, err := audiotag.Open("song.mp3", audiotag.WithStrictParsing())
//	var terr *audiotag.TruncatedError
//	if errors.As(err, &terr) {
//		log.Printf("%s at %d wants %d bytes", terr.What, terr.Offset, terr.Length)
//	}
//
// APE items and Lyrics3v2 fields whose declared sizes are too short are
// recovered by scanning for the next valid record.
//
// # Writing
//
// SetTag and RemoveTag stage changes; Save applies them atomically:
//
//	tag := audiotag.NewAPETag()
//	_ = tag.Set(audiotag.NewAPETextItem("Title", "Song"))
//	if err := file.SetTag(tag); err != nil {
//		log.Fatal(err)
//	}
//	if err := file.Save(audiotag.WithBackup(".bak")); err != nil {
//		log.Fatal(err)
//	}
//
// ID3v2 frames that depend on other frames, such as a synchronised tempo
// code list on its timestamp format, are validated when they are added or
// removed and fail with a DependencyViolationError.
//
// # Concurrency
//
// A File is not safe for concurrent use. OpenMany opens independent files
// in parallel:
//
//	files, err := audiotag.OpenMany(ctx, paths)
package audiotag
