package core

import (
	"errors"
	"testing"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name: "valid document",
			doc: &Document{
				Id:       "doc-1",
				Title:    "Oil Filter Torque Spec",
				Content:  "Torque the filter to 18 ft-lbs.",
				TenantId: "tenant-a",
				Status:   StatusProcessing,
			},
			wantErr: nil,
		},
		{
			name: "valid document with tags and zero chunk count",
			doc: &Document{
				Id:       "doc-2",
				Title:    "Brake Manual",
				Content:  "Bleed sequence starts at the rear right caliper.",
				TenantId: "tenant-a",
				Tags:     []string{"brakes", "manual"},
				Status:   StatusCompleted,
			},
			wantErr: nil,
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrInvalidDocument,
		},
		{
			name: "empty title",
			doc: &Document{
				Content:  "content",
				TenantId: "tenant-a",
				Status:   StatusProcessing,
			},
			wantErr: ErrEmptyTitle,
		},
		{
			name: "whitespace-only title",
			doc: &Document{
				Title:    "   ",
				Content:  "content",
				TenantId: "tenant-a",
				Status:   StatusProcessing,
			},
			wantErr: ErrEmptyTitle,
		},
		{
			name: "empty content",
			doc: &Document{
				Title:    "title",
				TenantId: "tenant-a",
				Status:   StatusProcessing,
			},
			wantErr: ErrEmptyContent,
		},
		{
			name: "missing tenant",
			doc: &Document{
				Title:   "title",
				Content: "content",
				Status:  StatusProcessing,
			},
			wantErr: ErrTenantRequired,
		},
		{
			name: "unknown status",
			doc: &Document{
				Title:    "title",
				Content:  "content",
				TenantId: "tenant-a",
				Status:   ProcessingStatus("archived"),
			},
			wantErr: ErrInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		chunk   *Chunk
		wantErr error
	}{
		{
			name: "valid chunk",
			chunk: &Chunk{
				Id:         ChunkIDFor("doc-1", 0),
				DocumentId: "doc-1",
				TenantId:   "tenant-a",
				Index:      0,
				Content:    "some text",
			},
			wantErr: nil,
		},
		{
			name: "valid chunk without vector",
			chunk: &Chunk{
				DocumentId: "doc-1",
				TenantId:   "tenant-a",
				Index:      3,
				Content:    "some text",
				Vector:     nil,
			},
			wantErr: nil,
		},
		{
			name:    "nil chunk",
			chunk:   nil,
			wantErr: ErrInvalidChunk,
		},
		{
			name: "missing document ID",
			chunk: &Chunk{
				TenantId: "tenant-a",
				Content:  "text",
			},
			wantErr: ErrInvalidChunk,
		},
		{
			name: "missing tenant",
			chunk: &Chunk{
				DocumentId: "doc-1",
				Content:    "text",
			},
			wantErr: ErrTenantRequired,
		},
		{
			name: "empty content",
			chunk: &Chunk{
				DocumentId: "doc-1",
				TenantId:   "tenant-a",
			},
			wantErr: ErrEmptyContent,
		},
		{
			name: "negative index",
			chunk: &Chunk{
				DocumentId: "doc-1",
				TenantId:   "tenant-a",
				Content:    "text",
				Index:      -1,
			},
			wantErr: ErrInvalidChunk,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateChunk() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChunk() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeVectorBasic(t *testing.T) {
	v := NormalizeVector([]float32{3, 4})
	if len(v) != 2 {
		t.Fatalf("NormalizeVector() length = %d, want 2", len(v))
	}
	if v[0] < 0.599 || v[0] > 0.601 || v[1] < 0.799 || v[1] > 0.801 {
		t.Errorf("NormalizeVector() = %v, want [0.6 0.8]", v)
	}

	zero := NormalizeVector([]float32{0, 0, 0})
	for _, val := range zero {
		if val != 0 {
			t.Errorf("NormalizeVector() of zero vector = %v, want all zeros", zero)
		}
	}
}

func TestCosineSimilarityBasic(t *testing.T) {
	same := CosineSimilarity([]float32{1, 0}, []float32{2, 0})
	if same < 0.999 {
		t.Errorf("CosineSimilarity() of parallel vectors = %f, want 1", same)
	}

	orthogonal := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if orthogonal > 0.001 || orthogonal < -0.001 {
		t.Errorf("CosineSimilarity() of orthogonal vectors = %f, want 0", orthogonal)
	}
}
