package sparse

import (
	"fmt"

	"github.com/mamba-ml/mamba/internal/marshal"
)

// Operands holds handles to freshly materialized external buffers of one
// adapter, in the form CSR routines take them: order, values, row pointers,
// column indices, and nnz, each passed by address.
type Operands struct {
	Order         marshal.Handle
	Values        marshal.Handle
	RowPointers   marshal.Handle
	ColumnIndices marshal.Handle
	Count         marshal.Handle
}

// Operands materializes every external buffer and resolves a handle to each.
// The handles keep their buffers reachable through Handle.Buffer.
func (a *Adapter) Operands() (*Operands, error) {
	r := marshal.NewResolver(a.conv)
	ops := &Operands{}

	fields := []struct {
		name  string
		build func() (*marshal.Buffer, error)
		dst   *marshal.Handle
	}{
		{"order", a.Order, &ops.Order},
		{"values", a.ValuesBuffer, &ops.Values},
		{"row pointers", a.ExternalRowPointers, &ops.RowPointers},
		{"column indices", a.ExternalColumnIndices, &ops.ColumnIndices},
		{"count", a.Count, &ops.Count},
	}

	for _, f := range fields {
		buf, err := f.build()
		if err != nil {
			return nil, fmt.Errorf("sparse operands: %s: %w", f.name, err)
		}
		h, err := r.HandleOf(buf)
		if err != nil {
			return nil, fmt.Errorf("sparse operands: %s: %w", f.name, err)
		}
		*f.dst = h
	}
	return ops, nil
}
