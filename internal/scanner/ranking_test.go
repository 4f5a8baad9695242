package scanner

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oppWithProfit(route string, profit float64) Opportunity {
	return Opportunity{
		Route:     []string{route},
		ProfitPct: decimal.NewFromFloat(profit),
	}
}

func TestRankingStore_FiltersAndSorts(t *testing.T) {
	store := NewRankingStore(10)

	store.Update([]Opportunity{
		oppWithProfit("a", 0.5),
		oppWithProfit("b", -1.2),
		oppWithProfit("c", 2.1),
		oppWithProfit("d", 0),
		oppWithProfit("e", 0.9),
	})

	top := store.Top()
	require.Len(t, top, 3)
	assert.Equal(t, []string{"c"}, top[0].Route)
	assert.Equal(t, []string{"e"}, top[1].Route)
	assert.Equal(t, []string{"a"}, top[2].Route)

	for _, opp := range top {
		assert.True(t, opp.ProfitPct.IsPositive())
	}
}

func TestRankingStore_TruncatesToTopK(t *testing.T) {
	store := NewRankingStore(3)

	var opps []Opportunity
	for i := 1; i <= 10; i++ {
		opps = append(opps, oppWithProfit(fmt.Sprintf("r%d", i), float64(i)))
	}
	store.Update(opps)

	top := store.Top()
	require.Len(t, top, 3)
	assert.Equal(t, []string{"r10"}, top[0].Route)
	assert.Equal(t, []string{"r8"}, top[2].Route)
}

func TestRankingStore_StableTies(t *testing.T) {
	store := NewRankingStore(10)

	store.Update([]Opportunity{
		oppWithProfit("first", 1.0),
		oppWithProfit("second", 1.0),
		oppWithProfit("third", 1.0),
	})

	top := store.Top()
	require.Len(t, top, 3)
	assert.Equal(t, []string{"first"}, top[0].Route)
	assert.Equal(t, []string{"second"}, top[1].Route)
	assert.Equal(t, []string{"third"}, top[2].Route)
}

func TestRankingStore_ReplacedWholesale(t *testing.T) {
	store := NewRankingStore(10)

	store.Update([]Opportunity{oppWithProfit("old", 5)})
	store.Update([]Opportunity{oppWithProfit("new", 1)})

	top := store.Top()
	require.Len(t, top, 1)
	assert.Equal(t, []string{"new"}, top[0].Route)
}

func TestRankingStore_TopReturnsCopy(t *testing.T) {
	store := NewRankingStore(10)
	store.Update([]Opportunity{oppWithProfit("a", 1), oppWithProfit("b", 0.5)})

	top := store.Top()
	top[0] = oppWithProfit("mutated", 99)

	assert.Equal(t, []string{"a"}, store.Top()[0].Route)
}
