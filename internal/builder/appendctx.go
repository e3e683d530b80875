package builder

import (
	"strconv"
	"time"

	"github.com/csvquery/vcsv/internal/schema"
)

// AppendContext binds one column's builder to a pair of closures computed
// once per chunk, before the row loop starts, so the hot per-value path
// never goes through an interface method call or a type switch. This is
// the Go expression of the spec's "devirtualized append context": Go has
// no void* function-pointer-over-untyped-buffer idiom, so a closure
// captured over the concrete typed buffer is the equivalent that still
// removes per-value dispatch.
type AppendContext struct {
	AppendValue func(raw string) error
	AppendNull  func()
	Builder     ColumnBuilder
}

// NewAppendContext builds the closures for one column's builder, selecting
// the parse/append strategy exactly once based on the column's inferred
// type.
func NewAppendContext(b ColumnBuilder, trueValues, falseValues map[string]struct{}) AppendContext {
	switch bb := b.(type) {
	case *boolBuilder:
		return AppendContext{
			Builder: b,
			AppendValue: func(raw string) error {
				if _, ok := trueValues[raw]; ok {
					bb.AppendValue(1)
					return nil
				}
				if _, ok := falseValues[raw]; ok {
					bb.AppendValue(0)
					return nil
				}
				return errInvalidBool
			},
			AppendNull: bb.AppendNull,
		}
	case *int32Builder:
		return AppendContext{
			Builder: b,
			AppendValue: func(raw string) error {
				n, err := strconv.ParseInt(raw, 10, 32)
				if err != nil {
					return err
				}
				bb.AppendValue(int32(n))
				return nil
			},
			AppendNull: bb.AppendNull,
		}
	case *int64Builder:
		return AppendContext{
			Builder: b,
			AppendValue: func(raw string) error {
				n, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					return err
				}
				bb.AppendValue(n)
				return nil
			},
			AppendNull: bb.AppendNull,
		}
	case *float64Builder:
		return AppendContext{
			Builder: b,
			AppendValue: func(raw string) error {
				f, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return err
				}
				bb.AppendValue(f)
				return nil
			},
			AppendNull: bb.AppendNull,
		}
	case *dateBuilder:
		return AppendContext{
			Builder: b,
			AppendValue: func(raw string) error {
				layout := "2006-01-02"
				if len(raw) > 4 && raw[4] == '/' {
					layout = "2006/01/02"
				}
				t, err := time.Parse(layout, raw)
				if err != nil {
					return err
				}
				days := int32(t.Unix() / 86400)
				bb.AppendValue(days)
				return nil
			},
			AppendNull: bb.AppendNull,
		}
	case *timestampBuilder:
		return AppendContext{
			Builder: b,
			AppendValue: func(raw string) error {
				layout := "2006-01-02T15:04:05"
				if len(raw) > 10 && raw[10] == ' ' {
					layout = "2006-01-02 15:04:05"
				}
				if len(raw) > 4 && raw[4] == '/' {
					layout = "2006/01/02" + layout[10:]
				}
				t, err := time.Parse(layout, raw)
				if err != nil {
					return err
				}
				bb.AppendValue(t.UnixMicro())
				return nil
			},
			AppendNull: bb.AppendNull,
		}
	case *stringBuilder:
		return AppendContext{
			Builder: b,
			AppendValue: func(raw string) error {
				bb.AppendValue(raw)
				return nil
			},
			AppendNull: bb.AppendNull,
		}
	default:
		panic("builder: unknown column builder variant")
	}
}

var errInvalidBool = boolParseError{}

type boolParseError struct{}

func (boolParseError) Error() string { return "invalid boolean literal" }

// NewAppendContexts builds one AppendContext per column, in schema order.
func NewAppendContexts(cols []ColumnBuilder, trueValues, falseValues map[string]struct{}) []AppendContext {
	ctxs := make([]AppendContext, len(cols))
	for i, c := range cols {
		ctxs[i] = NewAppendContext(c, trueValues, falseValues)
	}
	return ctxs
}

// TypeOfBuilder exposes a builder's DataType for callers outside this
// package (e.g. assembling a schema.TableSchema from finalized builders).
func TypeOfBuilder(b ColumnBuilder) schema.DataType { return b.Type() }
