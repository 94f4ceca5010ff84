package hierarchy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"chmura-plikow/internal/models"
)

func mustFolder(t *testing.T, ownerID string, parentID *string, name string) *models.Node {
	t.Helper()
	node, err := testService.CreateFolder(context.Background(), ownerID, CreateFolderParams{Name: name, ParentID: parentID})
	require.NoError(t, err)
	return node
}

func mustFile(t *testing.T, ownerID string, parentID *string, name string, size int64) *models.Node {
	t.Helper()
	node, err := testService.InsertFile(context.Background(), ownerID, InsertFileParams{
		Name: name, ParentID: parentID, OssPath: "t/" + name, SizeBytes: size,
	})
	require.NoError(t, err)
	return node
}

func TestMoveRejectsCycles(t *testing.T) {
	user := createTestUser(t)
	a := mustFolder(t, user.UserID, nil, "m-a")
	b := mustFolder(t, user.UserID, &a.ID, "m-b")
	c := mustFolder(t, user.UserID, &b.ID, "m-c")

	err := testService.Move(context.Background(), user.UserID, a.ID, &a.ID)
	require.ErrorIs(t, err, ErrCycle, "a folder cannot become its own parent")

	err = testService.Move(context.Background(), user.UserID, a.ID, &c.ID)
	require.ErrorIs(t, err, ErrCycle, "a folder cannot move under its own descendant")

	// W drugą stronę wolno.
	err = testService.Move(context.Background(), user.UserID, c.ID, &a.ID)
	require.NoError(t, err)

	moved, err := testStore.GetNodeByID(context.Background(), c.ID, user.UserID)
	require.NoError(t, err)
	require.Equal(t, a.ID, *moved.ParentID)
}

func TestMoveToRootAndConflict(t *testing.T) {
	user := createTestUser(t)
	src := mustFolder(t, user.UserID, nil, "mv-src")
	file := mustFile(t, user.UserID, &src.ID, "mv.txt", 1)
	mustFile(t, user.UserID, nil, "mv.txt", 1)

	// W korzeniu już jest żywy plik o tej nazwie.
	err := testService.Move(context.Background(), user.UserID, file.ID, nil)
	require.ErrorIs(t, err, ErrNameConflict)

	dst := mustFolder(t, user.UserID, nil, "mv-dst")
	require.NoError(t, testService.Move(context.Background(), user.UserID, file.ID, &dst.ID))
}

func TestMoveTargetMustBeLiveFolder(t *testing.T) {
	user := createTestUser(t)
	folder := mustFolder(t, user.UserID, nil, "mt-folder")
	file := mustFile(t, user.UserID, nil, "mt.txt", 1)

	err := testService.Move(context.Background(), user.UserID, folder.ID, &file.ID)
	require.ErrorIs(t, err, ErrNotFound, "a file cannot be a move target")

	trashed := mustFolder(t, user.UserID, nil, "mt-kosz")
	require.NoError(t, testService.SoftDelete(context.Background(), user.UserID, trashed.ID))

	err = testService.Move(context.Background(), user.UserID, folder.ID, &trashed.ID)
	require.ErrorIs(t, err, ErrNotFound, "a trashed folder cannot be a move target")
}

func TestRenameConflictsOnlyWithLiveSiblings(t *testing.T) {
	user := createTestUser(t)
	root := mustFolder(t, user.UserID, nil, "rn-root")
	doomed := mustFile(t, user.UserID, &root.ID, "zajęta.txt", 1)
	live := mustFile(t, user.UserID, &root.ID, "wolna.txt", 1)

	require.NoError(t, testService.SoftDelete(context.Background(), user.UserID, doomed.ID))

	// Nazwa rekordu w koszu nie blokuje zmiany nazwy.
	renamed, err := testService.Rename(context.Background(), user.UserID, live.ID, "zajęta.txt")
	require.NoError(t, err)
	require.Equal(t, "zajęta.txt", renamed.Name)
	require.Equal(t, "txt", *renamed.FileSuffix)

	other := mustFile(t, user.UserID, &root.ID, "inna.txt", 1)
	_, err = testService.Rename(context.Background(), user.UserID, other.ID, "zajęta.txt")
	require.ErrorIs(t, err, ErrNameConflict, "a live sibling still blocks the name")
}

func TestRenameOnlineEditFileKeepsContentAligned(t *testing.T) {
	user := createTestUser(t)

	node, err := testService.InsertOnlineEditFile(context.Background(), user.UserID, InsertOnlineEditFileParams{
		Name: "stara.md", Body: "treść", SizeBytes: 5,
	})
	require.NoError(t, err)

	_, err = testService.Rename(context.Background(), user.UserID, node.ID, "nowa.markdown")
	require.NoError(t, err)

	got, err := testService.GetOnlineEditFile(context.Background(), user.UserID, node.ID)
	require.NoError(t, err)
	require.Equal(t, "nowa.markdown", got.Content.Name)
	require.Equal(t, "markdown", *got.Content.FileSuffix)
}

func TestSoftDeleteCascadesAndKeepsQuota(t *testing.T) {
	user := createTestUser(t)
	root := mustFolder(t, user.UserID, nil, "sd-root")
	sub := mustFolder(t, user.UserID, &root.ID, "sd-sub")
	mustFile(t, user.UserID, &sub.ID, "sd.txt", 64)

	require.NoError(t, testService.SoftDelete(context.Background(), user.UserID, root.ID))

	subtree, err := testStore.SubtreeNodes(context.Background(), root.ID, user.UserID)
	require.NoError(t, err)
	require.Len(t, subtree, 3)
	for _, n := range subtree {
		require.NotNil(t, n.DeletedAt, "no live node may remain under a trashed ancestor")
	}

	require.Equal(t, "64", quotaOf(t, user.UserID).UploadUsed, "trash does not release quota")

	err = testService.SoftDelete(context.Background(), user.UserID, root.ID)
	require.ErrorIs(t, err, ErrNotFound, "a trashed node cannot be trashed again")
}

func TestHardDeleteCreditsQuotaAndDeletesObjects(t *testing.T) {
	testObjects.Reset()
	user := createTestUser(t)
	root := mustFolder(t, user.UserID, nil, "hd-root")
	mustFile(t, user.UserID, &root.ID, "hd-a.bin", 100)
	mustFile(t, user.UserID, &root.ID, "hd-b.bin", 50)
	_, err := testService.InsertOnlineEditFile(context.Background(), user.UserID, InsertOnlineEditFileParams{
		Name: "hd.md", ParentID: &root.ID, Body: "12345678", SizeBytes: 8,
	})
	require.NoError(t, err)

	require.Equal(t, "150", quotaOf(t, user.UserID).UploadUsed)
	require.Equal(t, "8", quotaOf(t, user.UserID).OnlineEditUsed)

	require.NoError(t, testService.HardDelete(context.Background(), user.UserID, root.ID))

	ledger := quotaOf(t, user.UserID)
	require.Equal(t, "0", ledger.UploadUsed)
	require.Equal(t, "0", ledger.OnlineEditUsed)

	require.ElementsMatch(t, []string{"t/hd-a.bin", "t/hd-b.bin"}, testObjects.Deleted,
		"only OSS-backed files get physical deletes")

	node, err := testStore.GetNodeAnyState(context.Background(), root.ID, user.UserID)
	require.NoError(t, err)
	require.Nil(t, node)
}

func TestHardDeleteRecordsOrphanOnObjectDeleteFailure(t *testing.T) {
	testObjects.Reset()
	user := createTestUser(t)
	file := mustFile(t, user.UserID, nil, "sierota.bin", 10)

	testObjects.RejectNext = true
	require.NoError(t, testService.HardDelete(context.Background(), user.UserID, file.ID),
		"metadata deletion must not fail because of the object store")

	orphans, err := testStore.ListOrphanedObjects(context.Background(), 10)
	require.NoError(t, err)

	var found bool
	for _, o := range orphans {
		if o.OssPath == "t/sierota.bin" {
			found = true
		}
	}
	require.True(t, found, "the undeleted object must land in the reconciliation journal")
}

func TestReconcileOrphansRetriesAndResolves(t *testing.T) {
	testObjects.Reset()
	user := createTestUser(t)
	file := mustFile(t, user.UserID, nil, "rozliczenie.bin", 10)

	testObjects.RejectNext = true
	require.NoError(t, testService.HardDelete(context.Background(), user.UserID, file.ID))

	// OSS wraca do życia; przebieg ponawia delete i rozlicza wpis.
	resolved, err := testService.ReconcileOrphans(context.Background(), 100)
	require.NoError(t, err)
	require.GreaterOrEqual(t, resolved, 1)
	require.Contains(t, testObjects.Deleted, "t/rozliczenie.bin")

	orphans, err := testStore.ListOrphanedObjects(context.Background(), 100)
	require.NoError(t, err)
	for _, o := range orphans {
		require.NotEqual(t, "t/rozliczenie.bin", o.OssPath, "a resolved orphan must leave the queue")
	}
}

func TestHardDeleteWorksOnTrashedNodes(t *testing.T) {
	testObjects.Reset()
	user := createTestUser(t)
	file := mustFile(t, user.UserID, nil, "kosz-hd.bin", 10)

	require.NoError(t, testService.SoftDelete(context.Background(), user.UserID, file.ID))
	require.NoError(t, testService.HardDelete(context.Background(), user.UserID, file.ID))

	require.Equal(t, "0", quotaOf(t, user.UserID).UploadUsed)
}

func TestRestoreFolderSubtree(t *testing.T) {
	user := createTestUser(t)
	root := mustFolder(t, user.UserID, nil, "rs-root")
	sub := mustFolder(t, user.UserID, &root.ID, "rs-sub")
	file := mustFile(t, user.UserID, &sub.ID, "rs.txt", 1)

	require.NoError(t, testService.SoftDelete(context.Background(), user.UserID, sub.ID))

	result, err := testService.Restore(context.Background(), user.UserID, sub.ID)
	require.NoError(t, err)
	require.Len(t, result.RestoredNames, 2)
	require.Equal(t, "/rs-root/rs-sub", result.FullPath)

	got, err := testStore.GetNodeByID(context.Background(), file.ID, user.UserID)
	require.NoError(t, err)
	require.NotNil(t, got, "the whole trashed subtree comes back")
}

func TestRestoreFileRevivesTrashedAncestors(t *testing.T) {
	user := createTestUser(t)
	root := mustFolder(t, user.UserID, nil, "ra-root")
	sub := mustFolder(t, user.UserID, &root.ID, "ra-sub")
	file := mustFile(t, user.UserID, &sub.ID, "ra.txt", 1)
	sibling := mustFile(t, user.UserID, &sub.ID, "ra-obok.txt", 1)

	require.NoError(t, testService.SoftDelete(context.Background(), user.UserID, root.ID))

	result, err := testService.Restore(context.Background(), user.UserID, file.ID)
	require.NoError(t, err)
	require.Equal(t, "/ra-root/ra-sub/ra.txt", result.FullPath)

	// Przodkowie wrócili, ale rodzeństwo zostało w koszu.
	got, err := testStore.GetNodeByID(context.Background(), sub.ID, user.UserID)
	require.NoError(t, err)
	require.NotNil(t, got)

	gone, err := testStore.GetNodeByID(context.Background(), sibling.ID, user.UserID)
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestRestoreConflictsWithLiveNamesake(t *testing.T) {
	user := createTestUser(t)
	first := mustFolder(t, user.UserID, nil, "rc-nazwa")
	require.NoError(t, testService.SoftDelete(context.Background(), user.UserID, first.ID))

	mustFolder(t, user.UserID, nil, "rc-nazwa")

	_, err := testService.Restore(context.Background(), user.UserID, first.ID)
	require.ErrorIs(t, err, ErrNameConflict)
}

func TestRestoreRejectsLiveNode(t *testing.T) {
	user := createTestUser(t)
	node := mustFolder(t, user.UserID, nil, "rl-żywy")

	_, err := testService.Restore(context.Background(), user.UserID, node.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRecycleBinShowsRootsWithPaths(t *testing.T) {
	user := createTestUser(t)
	root := mustFolder(t, user.UserID, nil, "rb-root")
	sub := mustFolder(t, user.UserID, &root.ID, "rb-sub")
	mustFile(t, user.UserID, &sub.ID, "rb.txt", 1)

	require.NoError(t, testService.SoftDelete(context.Background(), user.UserID, sub.ID))

	page, err := testService.RecycleBin(context.Background(), user.UserID, 50, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	require.Equal(t, sub.ID, page.Items[0].ID)
	require.Len(t, page.Items[0].Path, 1)
	require.Equal(t, "rb-root", page.Items[0].Path[0].Name)
}
