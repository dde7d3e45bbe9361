package client

import (
	"time"

	"YardVision/cliente/internal/containers"
	"YardVision/cliente/internal/navigation"
	"YardVision/cliente/internal/world"
	"YardVision/shared/protocol"
)

// InventoryRecords lê um inventory.refresh. Itens sem id são descartados.
func InventoryRecords(env protocol.Envelope) ([]containers.Record, error) {
	var items []protocol.InventoryItem
	if err := env.Decode(&items); err != nil {
		return nil, err
	}
	in := make([]containers.InboundRecord, 0, len(items))
	for _, it := range items {
		if it.ID == "" {
			continue
		}
		in = append(in, containers.InboundRecord{
			ID:        it.ID,
			Matricula: it.Matricula,
			Tipo:      it.Tipo,
			Posicion:  it.Posicion,
			Estado:    it.Estado,
		})
	}
	return containers.FromInbound(in), nil
}

// PositionFix lê um position.fix.
func PositionFix(env protocol.Envelope, now time.Time) (navigation.Fix, error) {
	var p protocol.PositionFix
	if err := env.Decode(&p); err != nil {
		return navigation.Fix{}, err
	}
	return navigation.Fix{Lon: p.Lon, Lat: p.Lat, Accuracy: p.Accuracy, At: now}, nil
}

// SelectionPayload devolve o contêiner selecionado no formato da camada de negócio,
// ou nil quando a seleção foi limpa.
func SelectionPayload(sel *containers.Selection) any {
	if sel == nil {
		return nil
	}
	r := sel.Record
	return protocol.InventoryItem{
		ID:        r.ID,
		Matricula: r.Matricula,
		Tipo:      r.Type,
		Posicion:  r.PositionCode,
		Estado:    r.Source.String(),
	}
}

// CommittedPayload converte um prop recém-colocado.
func CommittedPayload(p world.PropInstance) protocol.PropCommitted {
	return protocol.PropCommitted{
		ID:        p.ID,
		Type:      p.Type,
		Position:  protocol.Vec3{X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z},
		RotationY: p.RotationY,
		Scale:     protocol.Vec3{X: p.Scale.X, Y: p.Scale.Y, Z: p.Scale.Z},
		Params:    p.Params,
	}
}

// NavigationPayload resume o estado da navegação.
func NavigationPayload(st navigation.State) protocol.NavigationState {
	return protocol.NavigationState{
		RemainingKm: st.RemainingKm,
		OffRoute:    st.OffRoute,
		Running:     st.Running,
		Status:      st.Status.String(),
	}
}
