package history

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type failingStorage struct{ err error }

func (f failingStorage) GetItem(string) (string, bool, error) { return "", false, f.err }
func (f failingStorage) SetItem(string, string) error         { return f.err }

func filenames(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Filename
	}
	return out
}

func TestAddIsIdempotent(t *testing.T) {
	mem := NewMemoryStorage()
	s := NewStore(mem, "")

	require.True(t, s.Add("a.pdf"))
	require.False(t, s.Add("a.pdf"))
	require.NoError(t, s.Persist("a.pdf"))
	require.NoError(t, s.Persist("a.pdf"))

	require.Equal(t, 1, s.Len())
	raw, ok, _ := mem.GetItem(DefaultKey)
	require.True(t, ok)
	require.JSONEq(t, `["a.pdf"]`, raw)
}

func TestAddMatchesWholeFilename(t *testing.T) {
	s := NewStore(NewMemoryStorage(), "")
	require.True(t, s.Add("data.pdf"))
	require.True(t, s.Add("a.pdf"), "a substring of an existing name is a different file")
	require.Equal(t, 2, s.Len())
}

func TestLoadAfterReload(t *testing.T) {
	mem := NewMemoryStorage()
	require.NoError(t, mem.SetItem(DefaultKey, `["a.pdf","b.pdf"]`))

	s := NewStore(mem, DefaultKey)
	require.NoError(t, s.Load())
	require.Equal(t, []string{"b.pdf", "a.pdf"}, filenames(s.Entries()))

	files, err := s.Files()
	require.NoError(t, err)
	require.Equal(t, []string{"a.pdf", "b.pdf"}, files, "persisted order stays append order")
}

func TestLoadSkipsDuplicatesAlreadyRendered(t *testing.T) {
	mem := NewMemoryStorage()
	require.NoError(t, mem.SetItem(DefaultKey, `["a.pdf"]`))
	s := NewStore(mem, "")
	s.Add("a.pdf")
	require.NoError(t, s.Load())
	require.Equal(t, 1, s.Len())
}

func TestCorruptValueReadsAsEmpty(t *testing.T) {
	mem := NewMemoryStorage()
	require.NoError(t, mem.SetItem(DefaultKey, `not json`))
	s := NewStore(mem, "")

	require.NoError(t, s.Load())
	require.Zero(t, s.Len())

	require.NoError(t, s.Persist("c.pdf"))
	raw, _, _ := mem.GetItem(DefaultKey)
	require.JSONEq(t, `["c.pdf"]`, raw)
}

func TestSelectHighlightsExactlyOne(t *testing.T) {
	s := NewStore(NewMemoryStorage(), "")
	s.Add("a.pdf")
	s.Add("b.pdf")

	require.True(t, s.Select("a.pdf"))
	require.True(t, s.Select("b.pdf"))
	require.False(t, s.Select("missing.pdf"))

	highlighted := 0
	for _, e := range s.Entries() {
		if e.Highlighted {
			highlighted++
			require.Equal(t, "b.pdf", e.Filename)
		}
	}
	require.Equal(t, 1, highlighted)

	sel, ok := s.Selected()
	require.True(t, ok)
	require.Equal(t, "b.pdf", sel)
}

func TestEntryLabel(t *testing.T) {
	require.Equal(t, "📜 scroll.pdf", Entry{Filename: "scroll.pdf"}.Label())
}

func TestStorageErrorsPropagate(t *testing.T) {
	boom := errors.New("disk gone")
	s := NewStore(failingStorage{err: boom}, "")
	require.ErrorIs(t, s.Load(), boom)
	require.ErrorIs(t, s.Persist("a.pdf"), boom)
}
