package ledger

import "github.com/shopspring/decimal"

// WeightedAverageCost costo promedio ponderado tras una entrada:
// ((stock * costo) + (entrada * costoEntrada)) / (stock + entrada).
// Con stock resultante <= 0 se toma el costo de la entrada.
func WeightedAverageCost(onHand, currentCost, received, receivedCost decimal.Decimal) decimal.Decimal {
	if onHand.IsNegative() {
		onHand = decimal.Zero
	}
	total := onHand.Add(received)
	if !total.IsPositive() {
		return receivedCost
	}
	value := onHand.Mul(currentCost).Add(received.Mul(receivedCost))
	return value.DivRound(total, 4)
}
