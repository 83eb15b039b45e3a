package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetkit/knowledge/ai"
	"github.com/fleetkit/knowledge/ai/mock"
	"github.com/fleetkit/knowledge/core"
	"github.com/fleetkit/knowledge/search"
	"github.com/fleetkit/knowledge/storage"
	"github.com/fleetkit/knowledge/storage/badger"
)

type chatFixture struct {
	engine    *Engine
	embedder  *mock.MockEmbedder
	completer *mock.MockCompleter
	docRepo   storage.DocumentRepository
	chunkRepo storage.ChunkRepository
}

func setupChat(t *testing.T, opts ...Option) *chatFixture {
	t.Helper()

	docRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	})

	embedder := mock.NewMockEmbedder()
	embedder.EmbedQueryFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}

	searcher, err := search.NewSearcher(docRepo, chunkRepo, embedder)
	require.NoError(t, err)

	completer := mock.NewMockCompleter()

	engine, err := NewEngine(searcher, completer, opts...)
	require.NoError(t, err)

	return &chatFixture{
		engine:    engine,
		embedder:  embedder,
		completer: completer,
		docRepo:   docRepo,
		chunkRepo: chunkRepo,
	}
}

// seedChunks stores a completed document with the given chunk contents, all
// embedded close to the test query vector.
func (f *chatFixture) seedChunks(t *testing.T, title, tenant string, contents ...string) *core.Document {
	t.Helper()

	ctx := context.Background()
	doc, err := f.docRepo.AddDocument(ctx, &core.Document{
		Title:    title,
		Content:  strings.Join(contents, " "),
		TenantId: tenant,
		Status:   core.StatusCompleted,
	})
	require.NoError(t, err)

	for i, content := range contents {
		_, err := f.chunkRepo.AddChunks(ctx, &core.Chunk{
			DocumentId: doc.Id,
			TenantId:   tenant,
			Index:      i,
			Content:    content,
			Vector:     []float32{1, float32(i) * 0.01, 0},
		})
		require.NoError(t, err)
	}
	return doc
}

func TestChatValidatesQueryBeforeProviderCalls(t *testing.T) {
	f := setupChat(t)

	ctx := context.Background()

	_, err := f.engine.Chat(ctx, "", "tenant-a", nil, "")
	assert.ErrorIs(t, err, core.ErrEmptyQuery)

	_, err = f.engine.Chat(ctx, "  \t ", "tenant-a", nil, "")
	assert.ErrorIs(t, err, core.ErrEmptyQuery)

	_, err = f.engine.Chat(ctx, "torque spec", "", nil, "")
	assert.ErrorIs(t, err, core.ErrTenantRequired)

	assert.Zero(t, f.embedder.CallCount(), "no embedding call may happen on invalid input")
	assert.Zero(t, f.completer.CallCount(), "no completion call may happen on invalid input")
}

func TestChatBuildsCitedContext(t *testing.T) {
	f := setupChat(t)
	f.seedChunks(t, "Oil Filter Torque Spec", "tenant-a",
		"Torque the oil filter to 18 ft-lbs.",
		"Replace the filter every 10,000 km.")

	answer, err := f.engine.Chat(context.Background(), "What is the torque spec?", "tenant-a", nil, "")
	require.NoError(t, err)
	require.NotNil(t, answer)

	messages := f.completer.LastMessages()
	require.NotEmpty(t, messages)
	system := messages[0]
	assert.Equal(t, ai.RoleSystem, system.Role)
	assert.Contains(t, system.Content, "[Source 1: Oil Filter Torque Spec]")
	assert.Contains(t, system.Content, "[Source 2: Oil Filter Torque Spec]")
	assert.Contains(t, system.Content, "Torque the oil filter to 18 ft-lbs.")
	assert.Contains(t, system.Content, "cite it inline")

	last := messages[len(messages)-1]
	assert.Equal(t, ai.RoleUser, last.Role)
	assert.Equal(t, "What is the torque spec?", last.Content)

	require.Len(t, answer.Sources, 1)
	source := answer.Sources[0]
	assert.Equal(t, "Oil Filter Torque Spec", source.Title)
	assert.Len(t, source.Excerpts, 2)
	assert.InDelta(t, 1.0, source.MaxScore, 0.001)
}

func TestChatExternalContext(t *testing.T) {
	f := setupChat(t)
	f.seedChunks(t, "Manual", "tenant-a", "Generic maintenance advice.")

	_, err := f.engine.Chat(context.Background(), "What should I check?", "tenant-a", nil,
		"Vehicle: 2019 Volvo FH16, odometer 480,000 km, fault code P0420.")
	require.NoError(t, err)

	system := f.completer.LastMessages()[0]
	assert.Contains(t, system.Content, "fault code P0420")
	assert.Contains(t, system.Content, "not from the knowledge base")
}

func TestChatHistoryWindow(t *testing.T) {
	f := setupChat(t)
	f.seedChunks(t, "Manual", "tenant-a", "Some content.")

	history := make([]core.ChatTurn, 0, 10)
	for i := 0; i < 5; i++ {
		history = append(history,
			core.ChatTurn{Role: core.RoleUser, Content: strings.Repeat("q", i+1)},
			core.ChatTurn{Role: core.RoleAssistant, Content: strings.Repeat("a", i+1)},
		)
	}

	_, err := f.engine.Chat(context.Background(), "current question", "tenant-a", history, "")
	require.NoError(t, err)

	messages := f.completer.LastMessages()
	// System prompt + last 6 history turns + current query.
	require.Len(t, messages, 8)
	assert.Equal(t, "qqq", messages[1].Content, "older turns must be dropped")
	assert.Equal(t, ai.RoleAssistant, messages[2].Role)
	assert.Equal(t, "current question", messages[7].Content)
}

func TestChatNoRelevantSources(t *testing.T) {
	f := setupChat(t)
	// Chunk is orthogonal to the query vector, below any positive threshold.
	ctx := context.Background()
	doc, err := f.docRepo.AddDocument(ctx, &core.Document{
		Title:    "Unrelated Manual",
		Content:  "content",
		TenantId: "tenant-a",
		Status:   core.StatusCompleted,
	})
	require.NoError(t, err)
	_, err = f.chunkRepo.AddChunks(ctx, &core.Chunk{
		DocumentId: doc.Id,
		TenantId:   "tenant-a",
		Index:      0,
		Content:    "unrelated",
		Vector:     []float32{0, 1, 0},
	})
	require.NoError(t, err)

	answer, err := f.engine.Chat(ctx, "torque spec", "tenant-a", nil, "")
	require.NoError(t, err)
	assert.Empty(t, answer.Sources)

	system := f.completer.LastMessages()[0]
	assert.Contains(t, system.Content, "no relevant sources were found")
}

func TestChatTenantIsolation(t *testing.T) {
	f := setupChat(t)
	f.seedChunks(t, "Tenant B Secret Manual", "tenant-b", "Confidential torque values.")

	answer, err := f.engine.Chat(context.Background(), "torque spec", "tenant-a", nil, "")
	require.NoError(t, err)
	assert.Empty(t, answer.Sources, "no cross-tenant chunk may surface")

	system := f.completer.LastMessages()[0]
	assert.NotContains(t, system.Content, "Confidential")
}
