package input

import (
	"sort"
	"sync"
)

const (
	maxPointers         = 10  // ponteiro 0 = mouse, 1-9 = toque
	defaultDragDeadZone = 4.0 // pixels
)

// EventKind identifica um evento de entrada.
type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	Click
	Wheel
	KeyDown
	KeyUp
)

// Event é um evento de entrada já traduzido do dispositivo.
type Event struct {
	Kind    EventKind
	Pointer int
	X, Y    float32
	Wheel   float32
	Key     int32
	Button  int
	Drag    bool // em PointerUp: o ponteiro andou além da zona de arraste
}

// Handler devolve true para consumir o evento (listeners seguintes não o recebem).
type Handler func(Event) bool

type listener struct {
	id       uint32
	priority int
	fn       Handler
}

type pointerState struct {
	down           bool
	startX, startY float32
	dragging       bool
}

// Dispatcher distribui eventos entre listeners e detecta cliques (apertar e soltar
// sem arrastar).
type Dispatcher struct {
	mu        sync.Mutex
	listeners map[EventKind][]listener
	nextID    uint32
	pointers  [maxPointers]pointerState
	deadZone  float32
}

// NewDispatcher cria um dispatcher vazio.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{listeners: make(map[EventKind][]listener), deadZone: defaultDragDeadZone}
}

// CallbackHandle permite remover um listener registrado.
type CallbackHandle struct {
	d    *Dispatcher
	kind EventKind
	id   uint32
}

// Remove desregistra o listener. Chamadas repetidas não fazem nada.
func (h *CallbackHandle) Remove() {
	if h == nil || h.d == nil {
		return
	}
	d := h.d
	h.d = nil

	d.mu.Lock()
	defer d.mu.Unlock()
	ls := d.listeners[h.kind]
	for i, l := range ls {
		if l.id == h.id {
			d.listeners[h.kind] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

// On registra fn para eventos do tipo kind. Prioridade maior recebe antes.
func (d *Dispatcher) On(kind EventKind, priority int, fn Handler) *CallbackHandle {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	ls := append(d.listeners[kind], listener{id: d.nextID, priority: priority, fn: fn})
	sort.SliceStable(ls, func(i, j int) bool { return ls[i].priority > ls[j].priority })
	d.listeners[kind] = ls
	return &CallbackHandle{d: d, kind: kind, id: d.nextID}
}

// Len devolve o número de listeners registrados.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, ls := range d.listeners {
		n += len(ls)
	}
	return n
}

// Dispatch entrega e aos listeners. PointerUp sem arraste também gera um Click.
func (d *Dispatcher) Dispatch(e Event) bool {
	click := false
	if e.Pointer >= 0 && e.Pointer < maxPointers {
		d.mu.Lock()
		p := &d.pointers[e.Pointer]
		switch e.Kind {
		case PointerDown:
			*p = pointerState{down: true, startX: e.X, startY: e.Y}
		case PointerMove:
			if p.down && !p.dragging {
				dx, dy := e.X-p.startX, e.Y-p.startY
				if dx*dx+dy*dy > d.deadZone*d.deadZone {
					p.dragging = true
				}
			}
		case PointerUp:
			e.Drag = p.dragging
			click = p.down && !p.dragging
			*p = pointerState{}
		}
		d.mu.Unlock()
	}

	consumed := d.emit(e)
	if click {
		c := e
		c.Kind = Click
		if d.emit(c) {
			consumed = true
		}
	}
	return consumed
}

func (d *Dispatcher) emit(e Event) bool {
	d.mu.Lock()
	ls := append([]listener(nil), d.listeners[e.Kind]...)
	d.mu.Unlock()
	for _, l := range ls {
		if l.fn(e) {
			return true
		}
	}
	return false
}

// Dragging indica se o ponteiro está arrastando.
func (d *Dispatcher) Dragging(pointer int) bool {
	if pointer < 0 || pointer >= maxPointers {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pointers[pointer].dragging
}
