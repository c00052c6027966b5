package postgres

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/partscatalog/internal/catalog"
)

// toPgText returns invalid for empty or whitespace-only strings.
func toPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// toPgInt4 returns invalid for zero, which the catalog uses for "unknown".
// Values outside the int32 range are an error.
func toPgInt4(i int) (pgtype.Int4, error) {
	if i == 0 {
		return pgtype.Int4{Valid: false}, nil
	}
	if i < math.MinInt32 || i > math.MaxInt32 {
		return pgtype.Int4{}, fmt.Errorf("%d out of int4 range", i)
	}
	return pgtype.Int4{Int32: int32(i), Valid: true}, nil
}

func yearRange(m catalog.CarModel) (start, end pgtype.Int4, err error) {
	if start, err = toPgInt4(m.YearStart); err != nil {
		return start, end, fmt.Errorf("year_start: %w", err)
	}
	if end, err = toPgInt4(m.YearEnd); err != nil {
		return start, end, fmt.Errorf("year_end: %w", err)
	}
	return start, end, nil
}

func toPgInt8(p *int64) pgtype.Int8 {
	if p == nil {
		return pgtype.Int8{Valid: false}
	}
	return pgtype.Int8{Int64: *p, Valid: true}
}

func toPgNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func toPgNullNumeric(d decimal.NullDecimal) pgtype.Numeric {
	if !d.Valid {
		return pgtype.Numeric{Valid: false}
	}
	return toPgNumeric(d.Decimal)
}

// fromPgNumeric treats NULL, NaN and infinities as zero.
func fromPgNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(new(big.Int).Set(n.Int), n.Exp)
}

func fromPgNullNumeric(n pgtype.Numeric) decimal.NullDecimal {
	if !n.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(fromPgNumeric(n))
}

func fromPgInt8(n pgtype.Int8) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
