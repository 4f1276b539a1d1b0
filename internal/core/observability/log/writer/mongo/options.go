package mongo

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/zeusync/usuarios/internal/core/observability/log"
)

// SaveOptions are applied to every insert. W, Journal and WTimeout form the
// collection write concern.
type SaveOptions struct {
	W                        any
	Journal                  *bool
	WTimeout                 time.Duration
	BypassDocumentValidation *bool
	Comment                  any
}

// ParseSaveOptions reads the save_options mapping. Recognized keys:
// w, j, wtimeout (milliseconds or duration string), bypass_document_validation, comment.
func ParseSaveOptions(raw map[string]any) (SaveOptions, error) {
	var o SaveOptions
	for key, value := range raw {
		switch key {
		case "w":
			switch v := value.(type) {
			case int:
				o.W = v
			case int64:
				o.W = int(v)
			case float64:
				o.W = int(v)
			case string:
				o.W = v
			default:
				return o, fmt.Errorf("%w: save option w has type %T", log.ErrInvalidArgument, value)
			}
		case "j":
			b, ok := value.(bool)
			if !ok {
				return o, fmt.Errorf("%w: save option j has type %T", log.ErrInvalidArgument, value)
			}
			o.Journal = &b
		case "wtimeout":
			d, err := parseTimeout(value)
			if err != nil {
				return o, err
			}
			o.WTimeout = d
		case "bypass_document_validation":
			b, ok := value.(bool)
			if !ok {
				return o, fmt.Errorf("%w: save option bypass_document_validation has type %T", log.ErrInvalidArgument, value)
			}
			o.BypassDocumentValidation = &b
		case "comment":
			o.Comment = value
		default:
			return o, fmt.Errorf("%w: unknown save option %q", log.ErrInvalidArgument, key)
		}
	}
	return o, nil
}

func parseTimeout(value any) (time.Duration, error) {
	switch v := value.(type) {
	case int:
		return time.Duration(v) * time.Millisecond, nil
	case int64:
		return time.Duration(v) * time.Millisecond, nil
	case float64:
		return time.Duration(v) * time.Millisecond, nil
	case time.Duration:
		return v, nil
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("%w: save option wtimeout: %v", log.ErrInvalidArgument, err)
		}
		return d, nil
	default:
		return 0, fmt.Errorf("%w: save option wtimeout has type %T", log.ErrInvalidArgument, value)
	}
}

func (o SaveOptions) writeConcern() *writeconcern.WriteConcern {
	if o.W == nil && o.Journal == nil && o.WTimeout == 0 {
		return nil
	}
	return &writeconcern.WriteConcern{W: o.W, Journal: o.Journal, WTimeout: o.WTimeout}
}

func (o SaveOptions) collectionOptions() *options.CollectionOptions {
	opts := options.Collection()
	if wc := o.writeConcern(); wc != nil {
		opts.SetWriteConcern(wc)
	}
	return opts
}

func (o SaveOptions) insertOptions() *options.InsertOneOptions {
	opts := options.InsertOne()
	if o.BypassDocumentValidation != nil {
		opts.SetBypassDocumentValidation(*o.BypassDocumentValidation)
	}
	if o.Comment != nil {
		opts.SetComment(o.Comment)
	}
	return opts
}
