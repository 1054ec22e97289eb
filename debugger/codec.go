package debugger

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/flow/router"
)

func breakpointToStruct(bp Breakpoint) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":          structpb.NewStringValue(bp.ID),
		"source":      structpb.NewStringValue(bp.Source),
		"port":        structpb.NewNumberValue(float64(bp.Port)),
		"destination": structpb.NewStringValue(bp.Destination),
		"enabled":     structpb.NewBoolValue(bp.Enabled),
		"hits":        structpb.NewNumberValue(float64(bp.Hits)),
	}}
}

// breakpointFromStruct reads a rule; a missing port means AnyPort.
func breakpointFromStruct(s *structpb.Struct) (Breakpoint, error) {
	fields := s.GetFields()
	bp := Breakpoint{
		ID:          fields["id"].GetStringValue(),
		Source:      fields["source"].GetStringValue(),
		Port:        AnyPort,
		Destination: fields["destination"].GetStringValue(),
		Enabled:     fields["enabled"].GetBoolValue(),
		Hits:        int64(fields["hits"].GetNumberValue()),
	}

	if v, ok := fields["port"]; ok {
		n, isNumber := v.GetKind().(*structpb.Value_NumberValue)
		if !isNumber || n.NumberValue != math.Trunc(n.NumberValue) || n.NumberValue < AnyPort {
			return Breakpoint{}, fmt.Errorf("%w: %v", ErrInvalidPort, v.AsInterface())
		}
		bp.Port = int(n.NumberValue)
	}

	return bp, nil
}

func breakpointsToStruct(bps []Breakpoint) *structpb.Struct {
	values := make([]*structpb.Value, len(bps))
	for i, bp := range bps {
		values[i] = structpb.NewStructValue(breakpointToStruct(bp))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"breakpoints": structpb.NewListValue(&structpb.ListValue{Values: values}),
	}}
}

func breakpointsFromStruct(s *structpb.Struct) ([]Breakpoint, error) {
	values := s.GetFields()["breakpoints"].GetListValue().GetValues()
	bps := make([]Breakpoint, 0, len(values))
	for _, v := range values {
		bp, err := breakpointFromStruct(v.GetStructValue())
		if err != nil {
			return nil, err
		}
		bps = append(bps, bp)
	}
	return bps, nil
}

func deliveryToStruct(d router.Delivery) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		router.KeySource:        structpb.NewStringValue(d.Source),
		router.KeyPort:          structpb.NewNumberValue(float64(d.SourcePort)),
		router.KeyDestination:   structpb.NewStringValue(d.Destination),
		router.KeyCorrelationID: structpb.NewStringValue(d.CorrelationID()),
		"intercepted":           structpb.NewBoolValue(d.Intercepted),
	}}
}

func statusToStruct(status router.Status, last *Hit) *structpb.Struct {
	fields := map[string]*structpb.Value{
		"name":         structpb.NewStringValue(status.Name),
		"running":      structpb.NewBoolValue(status.Running),
		"paused":       structpb.NewBoolValue(status.Paused),
		"queue_length": structpb.NewNumberValue(float64(status.QueueLength)),
		"routes":       structpb.NewNumberValue(float64(status.Routes)),
		"sends":        structpb.NewNumberValue(float64(status.Metrics.Sends)),
		"enqueued":     structpb.NewNumberValue(float64(status.Metrics.Enqueued)),
		"delivered":    structpb.NewNumberValue(float64(status.Metrics.Delivered)),
		"dropped":      structpb.NewNumberValue(float64(status.Metrics.Dropped)),
		"intercepted":  structpb.NewNumberValue(float64(status.Metrics.Intercepted)),
	}
	sources := make([]*structpb.Value, len(status.Sources))
	for i, id := range status.Sources {
		sources[i] = structpb.NewStringValue(id)
	}
	fields["sources"] = structpb.NewListValue(&structpb.ListValue{Values: sources})
	if status.Head != nil {
		fields["head"] = structpb.NewStructValue(deliveryToStruct(*status.Head))
	}
	if last != nil {
		hit := deliveryToStruct(last.Delivery)
		hit.Fields["breakpoint_id"] = structpb.NewStringValue(last.BreakpointID)
		fields["last_hit"] = structpb.NewStructValue(hit)
	}
	return &structpb.Struct{Fields: fields}
}
