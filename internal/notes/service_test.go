package notes

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahsanfayaz52/notesservice/internal/db"
	"github.com/ahsanfayaz52/notesservice/internal/logger"
	"github.com/ahsanfayaz52/notesservice/internal/models"
)

type fakeResolver struct {
	mu    sync.Mutex
	calls []string
	urls  map[string][2]string
}

func (f *fakeResolver) ResolveURLs(_ context.Context, ownerID, fileName string) (string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ownerID+"/"+fileName)
	if u, ok := f.urls[fileName]; ok {
		return u[0], u[1]
	}
	return "https://storage.googleapis.com/bucket/" + ownerID + "/" + fileName, ""
}

type fixedClock struct {
	t time.Time
}

func (c *fixedClock) now() time.Time { return c.t }

func newTestService(t *testing.T, opts ...Option) (*Service, *sql.DB, *fakeResolver) {
	t.Helper()
	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	resolver := &fakeResolver{urls: map[string][2]string{}}
	return NewService(conn, resolver, logger.Nop(), opts...), conn, resolver
}

var (
	alice = models.User{ID: 1, Nickname: "alice", Email: "alice@example.com"}
	bob   = models.User{ID: 2, Nickname: "bob", Email: "bob@example.com"}
)

func TestSplitChecklist(t *testing.T) {
	assert.Equal(t, []string{"milk", "eggs"}, SplitChecklist("milk,,eggs"))
	assert.Equal(t, []string{" a", "b "}, SplitChecklist(" a,b ,"))
	assert.Nil(t, SplitChecklist(""))
	assert.Nil(t, SplitChecklist(",,,"))
}

func TestCreateNoteGroceries(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateNote(ctx, alice, NewNote{Title: "Groceries", Content: "", ChecklistCSV: "milk,,eggs"})
	require.NoError(t, err)

	notes, err := svc.ListNotes(ctx, alice)
	require.NoError(t, err)
	require.Len(t, notes, 1)

	n := notes[0]
	assert.Equal(t, id, n.ID)
	assert.Equal(t, "alice", n.Owner)
	assert.Equal(t, "Groceries", n.Title)
	assert.Equal(t, "", n.Content)
	require.Len(t, n.CheckListItems, 2)
	assert.Equal(t, "milk", n.CheckListItems[0].Title)
	assert.Equal(t, "eggs", n.CheckListItems[1].Title)
	assert.False(t, n.CheckListItems[0].Checked)
	assert.False(t, n.CheckListItems[1].Checked)
	assert.Empty(t, n.Files)
}

func TestCreateNoteChecklistCountMatchesTokens(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	cases := []string{"", "a", "a,b,c", ",x,", "one,two,,three,,,four"}
	for _, csv := range cases {
		_, err := svc.CreateNote(ctx, alice, NewNote{Title: csv, Content: "c", ChecklistCSV: csv})
		require.NoError(t, err)
	}

	notes, err := svc.ListNotes(ctx, alice)
	require.NoError(t, err)
	require.Len(t, notes, len(cases))
	for _, n := range notes {
		want := SplitChecklist(n.Title)
		got := make([]string, 0, len(n.CheckListItems))
		for _, item := range n.CheckListItems {
			got = append(got, item.Title)
		}
		assert.Equal(t, len(want), len(got), "csv %q", n.Title)
		if len(want) > 0 {
			assert.Equal(t, want, got, "csv %q", n.Title)
		}
	}
}

func TestCreateNoteWithAttachments(t *testing.T) {
	svc, _, resolver := newTestService(t)
	resolver.urls["cat.png"] = [2]string{"http://notes.test/img/1/cat.png?s=0", "http://notes.test/img/1/cat.png?c=1&s=150"}
	ctx := context.Background()

	_, err := svc.CreateNote(ctx, alice, NewNote{
		Title:   "Pets",
		Content: "see attached",
		Attachments: []Attachment{
			{Name: "cat.png", FullPath: "/bucket/1/cat.png"},
			{Name: "", FullPath: "/bucket/1/ignored"},
			{Name: "notes.txt", FullPath: "/bucket/1/notes.txt"},
		},
	})
	require.NoError(t, err)

	notes, err := svc.ListNotes(ctx, alice)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	files := notes[0].Files
	require.Len(t, files, 2)

	assert.Equal(t, "cat.png", files[0].Name)
	assert.Equal(t, "/bucket/1/cat.png", files[0].FullPath)
	assert.Equal(t, "http://notes.test/img/1/cat.png?c=1&s=150", files[0].ThumbnailURL)
	assert.True(t, files[0].HasThumbnail())

	assert.Equal(t, "notes.txt", files[1].Name)
	assert.NotEmpty(t, files[1].URL)
	assert.False(t, files[1].HasThumbnail())

	assert.Equal(t, []string{"1/cat.png", "1/notes.txt"}, resolver.calls)
}

func TestListNotesNewestFirst(t *testing.T) {
	clock := &fixedClock{}
	svc, _, _ := newTestService(t, WithClock(clock.now))
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, title := range []string{"t1", "t2", "t3"} {
		clock.t = base.Add(time.Duration(i) * time.Minute)
		_, err := svc.CreateNote(ctx, alice, NewNote{Title: title, Content: "x"})
		require.NoError(t, err)
	}

	notes, err := svc.ListNotes(ctx, alice)
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, "t3", notes[0].Title)
	assert.Equal(t, "t2", notes[1].Title)
	assert.Equal(t, "t1", notes[2].Title)
	assert.True(t, notes[0].CreatedAt.Equal(base.Add(2*time.Minute)))
}

func TestListNotesIsolatesOwners(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateNote(ctx, bob, NewNote{Title: "bob's", Content: "x", ChecklistCSV: "a"})
	require.NoError(t, err)
	before, err := svc.ListNotes(ctx, bob)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.CreateNote(ctx, alice, NewNote{Title: "alice's", Content: "y", ChecklistCSV: "b,c"})
		require.NoError(t, err)
	}

	after, err := svc.ListNotes(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	aliceNotes, err := svc.ListNotes(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, aliceNotes, 3)
}

func TestCreateNoteIsAtomic(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	_, err := conn.Exec(`CREATE TRIGGER fail_checklist BEFORE INSERT ON checklist_items
		WHEN NEW.title = 'explode'
		BEGIN SELECT RAISE(ABORT, 'forced failure'); END;`)
	require.NoError(t, err)

	_, err = svc.CreateNote(ctx, alice, NewNote{
		Title:        "doomed",
		Content:      "x",
		ChecklistCSV: "fine,explode,never",
		Attachments:  []Attachment{{Name: "a.png", FullPath: "/bucket/1/a.png"}},
	})
	require.Error(t, err)

	notes, err := svc.ListNotes(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, notes)

	for _, table := range []string{"notes", "checklist_items", "note_files"} {
		var count int
		require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&count))
		assert.Zero(t, count, table)
	}
}

func TestCreateNoteFileFailureIsAtomic(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	_, err := conn.Exec(`CREATE TRIGGER fail_files BEFORE INSERT ON note_files
		BEGIN SELECT RAISE(ABORT, 'forced failure'); END;`)
	require.NoError(t, err)

	_, err = svc.CreateNote(ctx, alice, NewNote{
		Title:        "doomed",
		Content:      "x",
		ChecklistCSV: "a,b",
		Attachments:  []Attachment{{Name: "a.png", FullPath: "/bucket/1/a.png"}},
	})
	require.Error(t, err)

	notes, err := svc.ListNotes(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestCreateNoteRequiresOwner(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateNote(context.Background(), models.User{ID: 3}, NewNote{Content: "x"})
	assert.ErrorIs(t, err, ErrNoOwner)

	_, err = svc.ListNotes(context.Background(), models.User{})
	assert.ErrorIs(t, err, ErrNoOwner)
}

func TestListAllNotes(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateNote(ctx, alice, NewNote{Content: "a", Attachments: []Attachment{{Name: "x.png", FullPath: "/bucket/1/x.png"}}})
	require.NoError(t, err)
	_, err = svc.CreateNote(ctx, bob, NewNote{Content: "b", Attachments: []Attachment{{Name: "y.png", FullPath: "/bucket/2/y.png"}}})
	require.NoError(t, err)

	all, err := svc.ListAllNotes(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	owners := map[string]string{}
	for _, n := range all {
		require.Len(t, n.Files, 1)
		owners[n.Owner] = n.Files[0].FullPath
	}
	assert.Equal(t, map[string]string{"alice": "/bucket/1/x.png", "bob": "/bucket/2/y.png"}, owners)
}
