package hierarchy

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateFolderValidation(t *testing.T) {
	user := createTestUser(t)

	_, err := testService.CreateFolder(context.Background(), user.UserID, CreateFolderParams{Name: "   "})
	require.ErrorIs(t, err, ErrValidation)

	ghost := "11111111-1111-1111-1111-111111111111"
	_, err = testService.CreateFolder(context.Background(), user.UserID, CreateFolderParams{Name: "x", ParentID: &ghost})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateFolderUnderFileRejected(t *testing.T) {
	user := createTestUser(t)

	file, err := testService.InsertFile(context.Background(), user.UserID, InsertFileParams{
		Name: "nie-folder.txt", OssPath: "t/nie-folder.txt", SizeBytes: 1,
	})
	require.NoError(t, err)

	_, err = testService.CreateFolder(context.Background(), user.UserID, CreateFolderParams{
		Name: "w-pliku", ParentID: &file.ID,
	})
	require.ErrorIs(t, err, ErrNotFound, "a file cannot be a parent")
}

func TestInsertFileChargesUploadPool(t *testing.T) {
	user := createTestUser(t)

	node, err := testService.InsertFile(context.Background(), user.UserID, InsertFileParams{
		Name: "raport.pdf", OssPath: "u/raport.pdf", SizeBytes: 2048,
	})
	require.NoError(t, err)
	require.Equal(t, "pdf", *node.FileSuffix)
	require.False(t, node.OnlineEditable)

	ledger := quotaOf(t, user.UserID)
	require.Equal(t, "2048", ledger.UploadUsed)
	require.Equal(t, "0", ledger.OnlineEditUsed)
}

func TestInsertFileQuotaExceededRollsBack(t *testing.T) {
	user := createTestUser(t)

	small := "100"
	require.NoError(t, testStore.UpdateQuotaLimits(context.Background(), user.UserID, &small, nil))

	_, err := testService.InsertFile(context.Background(), user.UserID, InsertFileParams{
		Name: "za-duzy.bin", OssPath: "u/za-duzy.bin", SizeBytes: 101,
	})
	require.ErrorIs(t, err, ErrQuotaExceeded)

	// Ani węzeł, ani licznik nie mogą zostać po odrzuconej operacji.
	nodes, err := testService.Search(context.Background(), user.UserID, "za-duzy")
	require.NoError(t, err)
	require.Empty(t, nodes)
	require.Equal(t, "0", quotaOf(t, user.UserID).UploadUsed)
}

func TestInsertOnlineEditFileRoundTrip(t *testing.T) {
	user := createTestUser(t)

	body := "# Notatki\ntreść"
	node, err := testService.InsertOnlineEditFile(context.Background(), user.UserID, InsertOnlineEditFileParams{
		Name: "notatki.md", Body: body, SizeBytes: int64(len(body)),
	})
	require.NoError(t, err)
	require.True(t, node.OnlineEditable)

	got, err := testService.GetOnlineEditFile(context.Background(), user.UserID, node.ID)
	require.NoError(t, err)
	require.Equal(t, body, got.Content.Body)
	require.Equal(t, node.ID, got.Node.ID)

	ledger := quotaOf(t, user.UserID)
	require.Equal(t, "0", ledger.UploadUsed, "online-edit content must not touch the upload pool")
	require.EqualValues(t, int64(len(body)), *got.Node.SizeBytes)
}

func TestInsertOnlineEditFileContentTooLarge(t *testing.T) {
	user := createTestUser(t)

	_, err := testService.InsertOnlineEditFile(context.Background(), user.UserID, InsertOnlineEditFileParams{
		Name: "ogromny.md", Body: strings.Repeat("a", MaxContentBytes+1), SizeBytes: MaxContentBytes + 1,
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestUpdateOnlineEditFileReplacesUsage(t *testing.T) {
	user := createTestUser(t)

	node, err := testService.InsertOnlineEditFile(context.Background(), user.UserID, InsertOnlineEditFileParams{
		Name: "dok.md", Body: strings.Repeat("x", 100), SizeBytes: 100,
	})
	require.NoError(t, err)
	require.Equal(t, "100", quotaOf(t, user.UserID).OnlineEditUsed)

	updated, err := testService.UpdateOnlineEditFile(context.Background(), user.UserID, UpdateOnlineEditFileParams{
		FileID: node.ID, Body: strings.Repeat("y", 40), SizeBytes: 40,
	})
	require.NoError(t, err)
	require.EqualValues(t, 40, *updated.SizeBytes)
	require.Equal(t, "40", quotaOf(t, user.UserID).OnlineEditUsed, "usage is replaced, not accumulated")

	got, err := testService.GetOnlineEditFile(context.Background(), user.UserID, node.ID)
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("y", 40), got.Content.Body)
}

func TestUpdateOnlineEditFileQuotaRejection(t *testing.T) {
	user := createTestUser(t)

	limit := "50"
	require.NoError(t, testStore.UpdateQuotaLimits(context.Background(), user.UserID, nil, &limit))

	node, err := testService.InsertOnlineEditFile(context.Background(), user.UserID, InsertOnlineEditFileParams{
		Name: "maly.md", Body: "abc", SizeBytes: 3,
	})
	require.NoError(t, err)

	_, err = testService.UpdateOnlineEditFile(context.Background(), user.UserID, UpdateOnlineEditFileParams{
		FileID: node.ID, Body: strings.Repeat("z", 60), SizeBytes: 60,
	})
	require.ErrorIs(t, err, ErrQuotaExceeded)

	got, err := testService.GetOnlineEditFile(context.Background(), user.UserID, node.ID)
	require.NoError(t, err)
	require.Equal(t, "abc", got.Content.Body, "rejected update must not change content")
	require.Equal(t, "3", quotaOf(t, user.UserID).OnlineEditUsed)
}

func TestSiblingConflictAcrossKinds(t *testing.T) {
	user := createTestUser(t)

	_, err := testService.CreateFolder(context.Background(), user.UserID, CreateFolderParams{Name: "wspólna"})
	require.NoError(t, err)

	// Plik o nazwie istniejącego folderu w tym samym miejscu też koliduje.
	_, err = testService.InsertFile(context.Background(), user.UserID, InsertFileParams{
		Name: "wspólna", OssPath: "u/wspólna", SizeBytes: 1,
	})
	require.ErrorIs(t, err, ErrNameConflict)
}

func TestListFolderContents(t *testing.T) {
	user := createTestUser(t)

	root, err := testService.CreateFolder(context.Background(), user.UserID, CreateFolderParams{Name: "lista"})
	require.NoError(t, err)

	_, err = testService.CreateFolder(context.Background(), user.UserID, CreateFolderParams{Name: "pod", ParentID: &root.ID})
	require.NoError(t, err)
	_, err = testService.InsertFile(context.Background(), user.UserID, InsertFileParams{
		Name: "plik.txt", ParentID: &root.ID, OssPath: "u/plik.txt", SizeBytes: 1,
	})
	require.NoError(t, err)

	nodes, err := testService.List(context.Background(), user.UserID, ListParams{ParentID: &root.ID})
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	require.True(t, nodes[0].IsFolder)

	_, err = testService.List(context.Background(), user.UserID, ListParams{Kind: "dziwny"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestSearchReturnsPaths(t *testing.T) {
	user := createTestUser(t)

	root, err := testService.CreateFolder(context.Background(), user.UserID, CreateFolderParams{Name: "projekty"})
	require.NoError(t, err)
	_, err = testService.InsertFile(context.Background(), user.UserID, InsertFileParams{
		Name: "Umowa_2026.pdf", ParentID: &root.ID, OssPath: "u/umowa.pdf", SizeBytes: 1,
	})
	require.NoError(t, err)

	results, err := testService.Search(context.Background(), user.UserID, "umowa")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Path, 1)
	require.Equal(t, "projekty", results[0].Path[0].Name)

	_, err = testService.Search(context.Background(), user.UserID, "  ")
	require.ErrorIs(t, err, ErrValidation)
}
