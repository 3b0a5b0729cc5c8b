package storage

import (
	"fmt"
	"strconv"
	"time"

	"github.com/samber/lo"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Records are google.protobuf.Struct documents in protobuf wire format.
// Timestamps are stored as decimal UnixNano strings because Struct numbers are float64.

func encode(fields map[string]any) ([]byte, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to build record: %w", err)
	}
	return proto.Marshal(s)
}

func decode(data []byte) (*structpb.Struct, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &s, nil
}

func nanos(t time.Time) string {
	return strconv.FormatInt(t.UnixNano(), 10)
}

func str(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func timestamp(s *structpb.Struct, key string) time.Time {
	n, err := strconv.ParseInt(str(s, key), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func strList(s *structpb.Struct, key string) []string {
	return toStrings(s.GetFields()[key].GetListValue())
}

func toStrings(l *structpb.ListValue) []string {
	return lo.Map(l.GetValues(), func(v *structpb.Value, _ int) string {
		return v.GetStringValue()
	})
}

func anyList(values []string) []any {
	return lo.ToAnySlice(values)
}
