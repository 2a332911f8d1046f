package currency

import "errors"

// Coin values relative to copper: 1 gp = 10 sp = 100 cp.
const (
	CopperPerSilver = 10
	CopperPerGold   = 100
)

var ErrInsufficient = errors.New("insufficient_funds")

// Coins is a denominated purse. All arithmetic goes through copper so the
// triplet is only ever a display form of a single integer amount.
type Coins struct {
	Gold   int64 `json:"gp"`
	Silver int64 `json:"sp"`
	Copper int64 `json:"cp"`
}

func (c Coins) TotalCopper() int64 {
	return c.Gold*CopperPerGold + c.Silver*CopperPerSilver + c.Copper
}

// FromCopper normalizes a copper amount into the largest denominations.
func FromCopper(cp int64) Coins {
	neg := cp < 0
	if neg {
		cp = -cp
	}
	c := Coins{
		Gold:   cp / CopperPerGold,
		Silver: (cp % CopperPerGold) / CopperPerSilver,
		Copper: cp % CopperPerSilver,
	}
	if neg {
		c.Gold, c.Silver, c.Copper = -c.Gold, -c.Silver, -c.Copper
	}
	return c
}

func (c Coins) Add(other Coins) Coins {
	return FromCopper(c.TotalCopper() + other.TotalCopper())
}

// Spend deducts cost from the purse, re-normalizing denominations. It fails
// without partial effect when the purse cannot cover the cost.
func (c Coins) Spend(costCopper int64) (Coins, error) {
	total := c.TotalCopper()
	if costCopper < 0 || total < costCopper {
		return c, ErrInsufficient
	}
	return FromCopper(total - costCopper), nil
}

func (c Coins) Earn(amountCopper int64) Coins {
	return FromCopper(c.TotalCopper() + amountCopper)
}

func (c Coins) IsZero() bool {
	return c.Gold == 0 && c.Silver == 0 && c.Copper == 0
}
