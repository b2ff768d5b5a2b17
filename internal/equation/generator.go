package equation

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Equation is one tappable bubble. Value is fixed when the equation is built
// and is the only comparison source; Expression is display text and is never
// parsed again.
type Equation struct {
	ID         string
	Expression string
	Value      int
}

// BatchSize is the number of equations shown per round.
const BatchSize = 3

// Difficulty thresholds: addition only below 3, subtraction joins at 3,
// multiplication at 5. The operator pool never shrinks as levels climb.
const (
	subtractionLevel    = 3
	multiplicationLevel = 5
)

type op int

const (
	opAdd op = iota
	opSub
	opMul
)

// Generator produces equation batches with difficulty scaled by level.
// Safe for concurrent use by multiple sessions.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator builds a generator. Seed 0 means time-seeded; tests pass a
// fixed seed for reproducible batches.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Batch returns exactly BatchSize fresh equations for the given level, each
// with a new id. Levels below 1 are treated as level 1. A batch where all
// three display strings collide is rolled again so the board never shows
// three identical bubbles.
func (g *Generator) Batch(level int) []Equation {
	if level < 1 {
		level = 1
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	batch := make([]Equation, BatchSize)
	for attempt := 0; ; attempt++ {
		for i := range batch {
			batch[i] = g.build(level)
		}
		if !sameExpressions(batch) || attempt >= 5 {
			return batch
		}
	}
}

func (g *Generator) build(level int) Equation {
	var value int
	var expr string

	switch g.pickOp(level) {
	case opAdd:
		hi := operandMax(level)
		a := 1 + g.rng.Intn(hi)
		b := 1 + g.rng.Intn(hi)
		value = a + b
		expr = fmt.Sprintf("%d + %d", a, b)
	case opSub:
		hi := operandMax(level)
		a := 1 + g.rng.Intn(hi)
		b := 1 + g.rng.Intn(hi)
		if b > a {
			a, b = b, a
		}
		value = a - b
		expr = fmt.Sprintf("%d - %d", a, b)
	case opMul:
		hi := factorMax(level)
		a := 2 + g.rng.Intn(hi-1)
		b := 2 + g.rng.Intn(hi-1)
		value = a * b
		expr = fmt.Sprintf("%d × %d", a, b)
	}

	return Equation{
		ID:         uuid.NewString(),
		Expression: expr,
		Value:      value,
	}
}

func (g *Generator) pickOp(level int) op {
	switch {
	case level < subtractionLevel:
		return opAdd
	case level < multiplicationLevel:
		return op(g.rng.Intn(2))
	default:
		return op(g.rng.Intn(3))
	}
}

// operandMax widens the addition/subtraction range linearly with level,
// capped so results stay mental-math sized.
func operandMax(level int) int {
	hi := 9 + (level-1)*3
	if hi > 99 {
		hi = 99
	}
	return hi
}

// factorMax keeps multiplication factors small; grows one step per level
// past the unlock, capped at the 12x table.
func factorMax(level int) int {
	hi := 3 + (level - multiplicationLevel)
	if hi < 3 {
		hi = 3
	}
	if hi > 12 {
		hi = 12
	}
	return hi
}

func sameExpressions(batch []Equation) bool {
	for _, eq := range batch[1:] {
		if eq.Expression != batch[0].Expression {
			return false
		}
	}
	return true
}
