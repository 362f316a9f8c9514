package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxdigest/internal/digest"
	"github.com/teemow/inboxdigest/internal/market"
	"github.com/teemow/inboxdigest/internal/newsletter"
)

func testDigest() *digest.Digest {
	return &digest.Digest{
		Source:      "gmail",
		GeneratedAt: time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC),
		Newsletters: []digest.Newsletter{{
			ID:      "1",
			Sender:  "TLDR <dan@tldrnewsletter.com>",
			Subject: "TLDR AI",
			Date:    "Mon, 6 May 2024 08:00:00 +0000",
			Stories: []newsletter.Story{
				{Title: "NVIDIA EARNINGS", Content: "Nvidia beat expectations.", Company: "Nvidia", Newsletter: "TLDR <dan@tldrnewsletter.com>", Subject: "TLDR AI"},
				{Title: "SMALL STARTUP", Content: "A startup raised money.", Company: newsletter.NotAvailable, Newsletter: "TLDR <dan@tldrnewsletter.com>", Subject: "TLDR AI"},
			},
		}},
		Skipped:    1,
		ProcessLog: []string{"Found 2 emails from known newsletter domains", "Skipped promotional email from a@b.c: Sale"},
	}
}

func TestBuild(t *testing.T) {
	out := Build(testDigest(), Options{Quotes: map[string]string{"NVDA": "$950.00 (+1.50%)"}})

	assert.True(t, strings.HasPrefix(out, "# Newsletter News Report\n\n**Date:** 2024-05-06\n"))
	assert.Contains(t, out, "Processed 1 newsletters and extracted 2 stories. Skipped 1 messages, 0 failed.")
	assert.Contains(t, out, "### 1. NVIDIA EARNINGS")
	assert.Contains(t, out, "- **Ticker:** NVDA\n- **Financial Context:** $950.00 (+1.50%)")
	assert.Contains(t, out, "### 2. SMALL STARTUP")
	assert.Contains(t, out, "- **Ticker:** N/A\n- **Financial Context:** "+market.NoFinancialData)
	assert.Contains(t, out, "- **Received:** Mon, 6 May 2024 08:00:00 +0000")

	notes := strings.Index(out, NotesHeading)
	require.GreaterOrEqual(t, notes, 0)
	assert.Greater(t, notes, strings.Index(out, "### 2."), "notes come last")
	assert.Contains(t, out[notes:], "- Skipped promotional email from a@b.c: Sale")
}

func TestBuild_Empty(t *testing.T) {
	out := Build(&digest.Digest{}, Options{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)})

	assert.Contains(t, out, "**Date:** 2024-01-02")
	assert.Contains(t, out, "No stories found.")
	assert.True(t, strings.HasSuffix(out, NotesHeading+"\n\n"))
}

func TestBuild_UnsubscribeLink(t *testing.T) {
	d := testDigest()
	d.Newsletters[0].Unsubscribe = []newsletter.UnsubscribeMethod{
		{Type: newsletter.UnsubscribeMailto, URL: "mailto:unsub@tldrnewsletter.com"},
		{Type: newsletter.UnsubscribeHTTP, URL: "https://tldrnewsletter.com/unsub"},
	}
	out := Build(d, Options{})
	assert.Contains(t, out, "- TLDR <dan@tldrnewsletter.com>: TLDR AI ([unsubscribe](https://tldrnewsletter.com/unsub))\n")

	d.Newsletters[0].Unsubscribe = d.Newsletters[0].Unsubscribe[:1]
	assert.Contains(t, Build(d, Options{}), "([unsubscribe](mailto:unsub@tldrnewsletter.com))")

	d.Newsletters[0].Unsubscribe = nil
	assert.Contains(t, Build(d, Options{}), "- TLDR <dan@tldrnewsletter.com>: TLDR AI\n")
}

func TestTickers(t *testing.T) {
	d := testDigest()
	d.Newsletters[0].Stories = append(d.Newsletters[0].Stories, newsletter.Story{Company: "Nvidia"})

	assert.Equal(t, []string{"NVDA"}, Tickers(d, nil))
}

func TestSave(t *testing.T) {
	dir := t.TempDir()

	path, err := Save(filepath.Join(dir, "out", "report"), "# hi\n")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "report.md"), path)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# hi\n", string(b))

	path, err = Save(filepath.Join(dir, "keep.md"), "x")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "keep.md"), path)

	_, err = Save("  ", "x")
	assert.ErrorIs(t, err, ErrEmptyPath)
}

func TestSaveIn(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")

	path, err := SaveIn(dir, "daily/2024-05-06", "# hi\n")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "daily", "2024-05-06.md"), path)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# hi\n", string(b))

	outside := t.TempDir()
	for _, name := range []string{filepath.Join(outside, "planted"), "../planted", "a/../../planted"} {
		_, err := SaveIn(dir, name, "x")
		assert.ErrorIs(t, err, ErrOutsideDir, name)
	}
	_, err = os.Stat(filepath.Join(outside, "planted.md"))
	assert.True(t, os.IsNotExist(err))

	_, err = SaveIn(dir, " ", "x")
	assert.ErrorIs(t, err, ErrEmptyPath)
}

func TestSaveIn_SymlinkEscape(t *testing.T) {
	dir := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(dir, "link")))

	_, err := SaveIn(dir, "link/planted", "x")
	assert.Error(t, err)
	_, err = os.Stat(filepath.Join(outside, "planted.md"))
	assert.True(t, os.IsNotExist(err))
}
