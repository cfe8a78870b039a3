package video

import "strings"

// TrimArgs builds the engine arguments for a stream-copy trim.
// -ss before -i seeks the input, -t bounds the output duration and
// make_zero shifts timestamps so none are negative after the seek.
func TrimArgs(startSeconds, durationSeconds float64, inputName, outputName string) []string {
	return []string{
		"-ss", FormatSeconds(startSeconds),
		"-i", inputName,
		"-t", FormatSeconds(durationSeconds),
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		"-y",
		outputName,
	}
}

// ConcatArgs builds the engine arguments for the concat demuxer.
// Inputs must share codec parameters; mismatches surface as ErrExecution.
func ConcatArgs(manifestName, outputName string) []string {
	return []string{
		"-f", "concat",
		"-safe", "0", // manifest entries are bare staged names
		"-i", manifestName,
		"-c", "copy",
		"-y",
		outputName,
	}
}

// ConcatManifest renders the concat demuxer list for the given staged names, in order
func ConcatManifest(names []string) []byte {
	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("file '")
		b.WriteString(name)
		b.WriteString("'")
	}
	return []byte(b.String())
}
