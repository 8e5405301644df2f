package report

import (
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/markdown"

	"github.com/KASSWRH/Website-Archiver/internal/crawler"
)

const (
	timeFormat    = "2006-01-02 15:04:05 MST"
	maxFileRows   = 200
	maxURLDisplay = 80
)

// MarkdownWriter writes archive reports as Markdown
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to w
func NewMarkdownWriter(w io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: w}
}

// Write renders the summary and returns the number of bytes written
func (w *MarkdownWriter) Write(s *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, s)
	w.writeKinds(md, s)
	w.writeErrors(md, s)
	w.writeFiles(md, s)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s *Summary) {
	md.H1("Website Archive Report")
	md.PlainText("")

	assets := "no"
	if s.DownloadAssets {
		assets = "yes"
	}

	rows := [][]string{
		{"Seed URL", "`" + s.SeedURL + "`"},
		{"Output", "`" + s.OutputRoot + "`"},
		{"Status", statusText(s.Snapshot.Status)},
		{"Max Depth", strconv.Itoa(s.MaxDepth)},
		{"Assets", assets},
		{"Files", strconv.Itoa(s.Snapshot.FilesDownloaded)},
		{"Total Size", humanize.Bytes(uint64(max(s.Snapshot.TotalBytes, 0)))},
		{"Errors", strconv.Itoa(len(s.Snapshot.Errors))},
	}
	if s.JobID != "" {
		rows = append([][]string{{"Job", "`" + s.JobID + "`"}}, rows...)
	}
	if !s.StartedAt.IsZero() {
		rows = append(rows, []string{"Started", s.StartedAt.Format(timeFormat)})
	}
	if !s.FinishedAt.IsZero() {
		rows = append(rows, []string{"Finished", s.FinishedAt.Format(timeFormat)})
		if !s.StartedAt.IsZero() {
			rows = append(rows, []string{"Duration", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond).String()})
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	switch {
	case s.Snapshot.Status == crawler.StatusFailed:
		md.Cautionf("The crawl failed after writing %d file(s).", s.Snapshot.FilesDownloaded)
	case len(s.Snapshot.Errors) > 0:
		md.Warningf("%d resource(s) could not be archived and were replaced by placeholders or error pages.", len(s.Snapshot.Errors))
	default:
		md.Tip("Every discovered resource was archived.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeKinds(md *markdown.Markdown, s *Summary) {
	md.H2("Files by Kind")
	md.PlainText("")

	if len(s.Kinds) == 0 {
		md.PlainText("No files were written.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(s.Kinds))
	for _, k := range s.Kinds {
		rows = append(rows, []string{string(k.Kind), strconv.Itoa(k.Count), humanize.Bytes(uint64(max(k.Bytes, 0)))})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Kind", "Count", "Size"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeErrors(md *markdown.Markdown, s *Summary) {
	md.H2("Errors")
	md.PlainText("")

	if len(s.Snapshot.Errors) == 0 {
		md.PlainText("No errors.")
		md.PlainText("")
		return
	}

	md.BulletList(s.Snapshot.Errors...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeFiles(md *markdown.Markdown, s *Summary) {
	if len(s.Files) == 0 {
		return
	}

	md.H2("Files")
	md.PlainText("")

	files := s.Files
	if len(files) > maxFileRows {
		files = files[:maxFileRows]
	}

	rows := make([][]string, len(files))
	for i, f := range files {
		status := "-"
		if f.StatusCode != 0 {
			status = strconv.Itoa(f.StatusCode)
		}
		rows[i] = []string{
			"`" + f.Path + "`",
			string(f.Kind),
			status,
			humanize.Bytes(uint64(max(f.Size, 0))),
			truncateString(f.URL, maxURLDisplay),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Path", "Kind", "Status", "Size", "URL"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(s.Files) > maxFileRows {
		md.PlainTextf("%d more file(s) not shown.", len(s.Files)-maxFileRows)
		md.PlainText("")
	}
}

func statusText(s crawler.Status) string {
	switch s {
	case crawler.StatusCompleted:
		return "✅ Completed"
	case crawler.StatusFailed:
		return "❌ Failed"
	case crawler.StatusRunning:
		return "⏳ Running"
	default:
		return string(s)
	}
}

// truncateString shortens s to maxLen bytes with an ellipsis
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
