package sqldb

import (
	"context"
	"fmt"

	"github.com/libresign/libresign/orm"
)

func QueryItem[
	M any, // Model struct
	MP Scannable[M], // *Model Implementing Scannable[M]
](
	ctx context.Context,
	h Handle,
	rawStmt string,
	args ...any,
) (*M, error) { // Returns the Pointer to the Newly Created Item
	row := h.QueryRow(ctx, rawStmt, args...)
	return ScanRowToItem[M, MP](row)
}

func QueryItems[
	M any, // Model struct
	MP Scannable[M], // *Model Implementing Scannable[M]
](
	ctx context.Context,
	h Handle,
	rawStmt string,
	args ...any,
) ([]*M, error) { // Returns a Slice of Model-Pointers
	rows, err := h.QueryRows(ctx, rawStmt, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return ScanRowsToItems[M, MP](rows)
}

func ScanRowToItem[
	M any, // Model struct
	MP Scannable[M], // *Model Implementing Scannable[M]
](row Row) (*M, error) {
	var item M     // struct with zero values for the fields
	p := MP(&item) // p is *M, which satisfies scanFieldsProvider interface
	err := row.Scan(p.FieldsToScan()...)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func ScanRowsToItems[
	M any, // Model struct
	MP Scannable[M], // *Model Implementing Scannable[M]
](rows Rows) ([]*M, error) {
	var itemptrs []*M
	for rows.Next() {
		var item M
		p := MP(&item)
		// Scan the Fields of Each Row to the Fields of the new struct of the Model
		if err := rows.Scan(p.FieldsToScan()...); err != nil {
			return nil, fmt.Errorf("scan failed: %v", err)
		}
		itemptrs = append(itemptrs, &item) // Collect the pointers
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during iterating rows: %v", err)
	}
	return itemptrs, nil
}

// ScanRowsToCollection scan rows to an ordered collection
func ScanRowsToCollection[
	M any, // Model struct
	MP ScannableIdentifiable[M, ID], // *Model implementing ScannableIdentifiable[M, ID]
	ID comparable,
](
	rows Rows,
) (*orm.Collection[MP, ID], error) {
	coll := orm.NewEmptyOrderedCollection[MP, ID]()

	for rows.Next() {
		var item M
		p := MP(&item)
		if err := rows.Scan(p.FieldsToScan()...); err != nil {
			return nil, fmt.Errorf("scan failed: %v", err)
		}
		coll.Add(p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during iterating rows: %v", err)
	}
	return coll, nil
}
