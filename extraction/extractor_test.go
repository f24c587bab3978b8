package extraction_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/c360studio/ontokg/extraction"
	"github.com/c360studio/ontokg/llm"
	"github.com/c360studio/ontokg/llm/testutil"
	"github.com/c360studio/ontokg/metrics"
	"github.com/c360studio/ontokg/source"
	"github.com/c360studio/ontokg/source/chunker"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var petVocab = extraction.NewVocabulary([]string{"Person", "Dog"}, []string{"hasPet"})

func respond(contents ...string) []*llm.Response {
	out := make([]*llm.Response, len(contents))
	for i, c := range contents {
		out[i] = &llm.Response{Content: c, Model: "test-model"}
	}
	return out
}

// smallChunker splits at every paragraph of the test texts.
func smallChunker(t *testing.T) *chunker.Chunker {
	t.Helper()
	c, err := chunker.New(chunker.Config{TargetTokens: 5, MaxTokens: 50, MinTokens: 1})
	require.NoError(t, err)
	return c
}

func TestExtractor_Extract(t *testing.T) {
	mock := &testutil.MockLLMClient{
		Responses: respond("```json\n" +
			`{"entities_and_triples": ["[1], Person:Alice", "[2], Dog:Rex", "[1] hasPet [2]", "noise"]}` +
			"\n```"),
	}
	reg := metrics.NewRegistry()
	ex := extraction.NewExtractor(mock, extraction.WithMetrics(reg), extraction.WithMaxTokens(512))

	res, err := ex.Extract(context.Background(), petVocab, "Alice owns a dog called Rex.")
	require.NoError(t, err)

	assert.Equal(t, 1, res.Chunks)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []extraction.Entity{
		{ID: "1", Type: "Person", Value: "Alice"},
		{ID: "2", Type: "Dog", Value: "Rex"},
	}, res.Entities)

	triplets := res.Triplets()
	require.Len(t, triplets, 1)
	assert.Equal(t, "Alice", triplets[0].Subject.Value)
	assert.Equal(t, "hasPet", triplets[0].Predicate)
	assert.Equal(t, "Rex", triplets[0].Object.Value)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "extraction", reqs[0].Capability)
	require.NotNil(t, reqs[0].Temperature)
	assert.Zero(t, *reqs[0].Temperature)
	assert.True(t, reqs[0].JSON)
	assert.Equal(t, 512, reqs[0].MaxTokens)
	require.Len(t, reqs[0].Messages, 1)
	assert.Equal(t, "user", reqs[0].Messages[0].Role)
	assert.Equal(t, extraction.BuildPrompt(petVocab, "Alice owns a dog called Rex."), reqs[0].Messages[0].Content)

	assert.Equal(t, 1.0, promtest.ToFloat64(reg.ExtractionChunksTotal.WithLabelValues("success")))
	assert.Equal(t, 2.0, promtest.ToFloat64(reg.ExtractedEntitiesTotal))
	assert.Equal(t, 1.0, promtest.ToFloat64(reg.SkippedEntriesTotal))
}

func TestExtractor_ChunkLocalIDs(t *testing.T) {
	mock := &testutil.MockLLMClient{
		Responses: respond(
			`{"entities_and_triples": ["[1], Person:Alice", "[2], Dog:Rex", "[1] hasPet [2]"]}`,
			`{"entities_and_triples": ["[1], Person:Bob", "[2], Dog:Fido", "[1] hasPet [2]", "[1] hasPet [9]"]}`,
		),
	}
	ex := extraction.NewExtractor(mock,
		extraction.WithChunker(smallChunker(t)),
		extraction.WithCapability("fast"))

	doc := &source.Document{ID: "doc.pets.abc", Content: "Alice owns Rex the dog.\n\nBob owns Fido the dog."}
	res, err := ex.ExtractDocument(context.Background(), petVocab, doc)
	require.NoError(t, err)

	assert.Equal(t, "doc.pets.abc", res.DocumentID)
	assert.Equal(t, 2, res.Chunks)
	assert.Equal(t, 0, res.Entities[0].Chunk)
	assert.Equal(t, 1, res.Entities[2].Chunk)
	assert.Len(t, res.Predicates, 3)

	triplets := res.Triplets()
	require.Len(t, triplets, 2, "dangling predicate is dropped")
	assert.Equal(t, "Alice", triplets[0].Subject.Value)
	assert.Equal(t, "Rex", triplets[0].Object.Value)
	assert.Equal(t, "Bob", triplets[1].Subject.Value)
	assert.Equal(t, "Fido", triplets[1].Object.Value)

	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "fast", reqs[0].Capability)
	assert.True(t, strings.HasSuffix(reqs[0].Messages[0].Content, "Alice owns Rex the dog.\n"))
	assert.True(t, strings.HasSuffix(reqs[1].Messages[0].Content, "Bob owns Fido the dog.\n"))
}

func TestExtractor_MalformedResponse(t *testing.T) {
	text := "Alice owns Rex the dog.\n\nBob owns Fido the dog."
	contents := []string{"sorry, no idea", `{"entities_and_triples": ["[1], Person:Bob"]}`}

	t.Run("aborts by default", func(t *testing.T) {
		reg := metrics.NewRegistry()
		mock := &testutil.MockLLMClient{Responses: respond(contents...)}
		ex := extraction.NewExtractor(mock, extraction.WithChunker(smallChunker(t)), extraction.WithMetrics(reg))

		_, err := ex.Extract(context.Background(), petVocab, text)
		assert.ErrorIs(t, err, extraction.ErrMalformedResponse)
		assert.Equal(t, 1, mock.GetCallCount())
		assert.Equal(t, 1.0, promtest.ToFloat64(reg.ExtractionChunksTotal.WithLabelValues("malformed")))
	})

	t.Run("skips when asked", func(t *testing.T) {
		mock := &testutil.MockLLMClient{Responses: respond(contents...)}
		ex := extraction.NewExtractor(mock,
			extraction.WithChunker(smallChunker(t)),
			extraction.WithSkipMalformed(true))

		res, err := ex.Extract(context.Background(), petVocab, text)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Chunks)
		assert.Equal(t, 1, res.FailedChunks)
		require.Len(t, res.Entities, 1)
		assert.Equal(t, 1, res.Entities[0].Chunk)
	})
}

func TestExtractor_ClientError(t *testing.T) {
	reg := metrics.NewRegistry()
	boom := llm.NewFatalError(errors.New("unauthorized"))
	mock := &testutil.MockLLMClient{Err: boom}
	ex := extraction.NewExtractor(mock, extraction.WithMetrics(reg), extraction.WithSkipMalformed(true))

	_, err := ex.Extract(context.Background(), petVocab, "Alice owns Rex.")
	require.Error(t, err)
	assert.True(t, llm.IsFatal(err))
	assert.Equal(t, 1.0, promtest.ToFloat64(reg.ExtractionChunksTotal.WithLabelValues("error")))
}

func TestExtractor_ContextCancelled(t *testing.T) {
	mock := &testutil.MockLLMClient{}
	ex := extraction.NewExtractor(mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ex.Extract(ctx, petVocab, "Alice owns Rex.")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, mock.GetCallCount())
}

func TestExtractor_EmptyInputs(t *testing.T) {
	mock := &testutil.MockLLMClient{}
	ex := extraction.NewExtractor(mock)

	_, err := ex.Extract(context.Background(), extraction.NewVocabulary(nil, nil), "text")
	assert.Error(t, err)

	res, err := ex.Extract(context.Background(), petVocab, "   ")
	require.NoError(t, err)
	assert.Zero(t, res.Chunks)
	assert.Empty(t, res.Triplets())
	assert.Zero(t, mock.GetCallCount())
}
