// Package telemetry expõe os contadores OpenTelemetry do YardVision.
// Sem um SDK instalado o provedor global do otel descarta as medições.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "yardvision"

// Counters agrupa os instrumentos usados pelo cliente e pelo servidor.
type Counters struct {
	FrameErrors     metric.Int64Counter
	PropsCommitted  metric.Int64Counter
	PropsRemoved    metric.Int64Counter
	UnknownProps    metric.Int64Counter
	PersistFailures metric.Int64Counter
	InventoryNodes  metric.Int64UpDownCounter
	NavigationFixes metric.Int64Counter
	BridgeMessages  metric.Int64Counter
}

// New cria os instrumentos a partir de m. m nil usa o provedor global.
func New(m metric.Meter) *Counters {
	if m == nil {
		m = otel.Meter(meterName)
	}
	fallback := noop.Meter{}
	c := &Counters{}
	c.FrameErrors = counter(m, fallback, "yv.frame.errors", "Passos de frame que falharam")
	c.PropsCommitted = counter(m, fallback, "yv.props.committed", "Props colocados no modo construção")
	c.PropsRemoved = counter(m, fallback, "yv.props.removed", "Props removidos no modo construção")
	c.UnknownProps = counter(m, fallback, "yv.props.unknown", "Pedidos de geometria para tipos desconhecidos")
	c.PersistFailures = counter(m, fallback, "yv.world.persist_failures", "Falhas ao gravar o mundo")
	c.NavigationFixes = counter(m, fallback, "yv.navigation.fixes", "Posições processadas pela navegação")
	c.BridgeMessages = counter(m, fallback, "yv.bridge.messages", "Mensagens trocadas com a camada de negócio")

	nodes, err := m.Int64UpDownCounter("yv.containers.nodes", metric.WithDescription("Contêineres renderizados"))
	if err != nil {
		nodes, _ = fallback.Int64UpDownCounter("yv.containers.nodes")
	}
	c.InventoryNodes = nodes
	return c
}

func counter(m, fallback metric.Meter, name, desc string) metric.Int64Counter {
	ctr, err := m.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		ctr, _ = fallback.Int64Counter(name)
	}
	return ctr
}

// Nop devolve contadores que não registram nada (testes).
func Nop() *Counters {
	return New(noop.Meter{})
}

// Inc soma 1 em ctr com os atributos opcionais.
func Inc(ctr metric.Int64Counter, attrs ...attribute.KeyValue) {
	if ctr == nil {
		return
	}
	ctr.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// Kind é um atalho para o atributo "kind".
func Kind(v string) attribute.KeyValue {
	return attribute.String("kind", v)
}
