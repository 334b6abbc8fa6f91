package pagination

import "testing"

func TestGetMeta(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		limit      int
		total      int64
		totalPages int
		hasNext    bool
		hasPrev    bool
	}{
		{"first of many", 1, 20, 95, 5, true, false},
		{"middle page", 3, 20, 95, 5, true, true},
		{"last page", 5, 20, 95, 5, false, true},
		{"exact fit", 2, 10, 20, 2, false, true},
		{"empty", 1, 20, 0, 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := GetMeta(&Params{Page: tt.page, Limit: tt.limit}, tt.total)
			if meta.TotalPages != tt.totalPages {
				t.Fatalf("totalPages=%d want %d", meta.TotalPages, tt.totalPages)
			}
			if meta.HasNext != tt.hasNext || meta.HasPrev != tt.hasPrev {
				t.Fatalf("hasNext=%v hasPrev=%v want %v %v", meta.HasNext, meta.HasPrev, tt.hasNext, tt.hasPrev)
			}
		})
	}
}
