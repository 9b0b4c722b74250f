package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	vectorstore_mocks "knowledge-indexer/internal/vectorstore/mocks"
)

func TestCollectionsCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range collectionsCmd.Commands() {
		names = append(names, cmd.Name())
	}
	assert.ElementsMatch(t, []string{"list", "delete"}, names)
}

func TestCollectionsListCmd(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := vectorstore_mocks.NewMockVectorStore(ctrl)
	mockStore.EXPECT().ListCollections(gomock.Any()).Return([]string{"books", "knowledge_base"}, nil)
	useServices(t, &Services{Store: mockStore, Collection: "knowledge_base"})

	out, err := execute(t, "collections", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "  books\n")
	assert.Contains(t, out, "* knowledge_base\n")
}

func TestCollectionsListCmd_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := vectorstore_mocks.NewMockVectorStore(ctrl)
	mockStore.EXPECT().ListCollections(gomock.Any()).Return(nil, nil)
	useServices(t, &Services{Store: mockStore})

	out, err := execute(t, "collections", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No collections.")
}

func TestCollectionsDeleteCmd(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := vectorstore_mocks.NewMockVectorStore(ctrl)
	mockStore.EXPECT().DeleteCollection(gomock.Any(), "old").Return(nil)
	useServices(t, &Services{Store: mockStore})

	out, err := execute(t, "collections", "delete", "old")

	require.NoError(t, err)
	assert.Contains(t, out, "Collection old deleted.")
}

func TestCollectionsDeleteCmd_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := vectorstore_mocks.NewMockVectorStore(ctrl)
	mockStore.EXPECT().DeleteCollection(gomock.Any(), "old").Return(errors.New("503"))
	useServices(t, &Services{Store: mockStore})

	_, err := execute(t, "collections", "delete", "old")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete collection old")
}

func TestCollectionsDeleteCmd_RequiresName(t *testing.T) {
	_, err := execute(t, "collections", "delete")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}
