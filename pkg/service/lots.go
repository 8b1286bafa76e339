package service

import (
	"time"

	"github.com/shopspring/decimal"
)

// lot 一笔尚未卖出的买入
type lot struct {
	Date     time.Time
	Quantity decimal.Decimal
	Cost     decimal.Decimal // 剩余数量的总成本
}

type lots []lot

// fifoCostOfSelling 按先进先出计算卖出 quantityToSell 的成本，
// 返回实际可匹配的数量、对应成本以及最早一笔被消耗的买入日期
func (l lots) fifoCostOfSelling(quantityToSell decimal.Decimal) (matched, cost decimal.Decimal, since time.Time) {
	for i, current := range l {
		if quantityToSell.IsZero() {
			break
		}
		if i == 0 {
			since = current.Date
		}
		if current.Quantity.GreaterThan(quantityToSell) {
			// 部分卖出
			cost = cost.Add(current.Cost.Mul(quantityToSell).Div(current.Quantity))
			matched = matched.Add(quantityToSell)
			return matched, cost, since
		}
		cost = cost.Add(current.Cost)
		matched = matched.Add(current.Quantity)
		quantityToSell = quantityToSell.Sub(current.Quantity)
	}
	return matched, cost, since
}

// sell 按先进先出扣减持仓
func (l lots) sell(quantityToSell decimal.Decimal) lots {
	var remaining lots
	for _, current := range l {
		if quantityToSell.IsZero() {
			remaining = append(remaining, current)
			continue
		}
		if current.Quantity.GreaterThan(quantityToSell) {
			// 部分卖出
			sold := current.Cost.Mul(quantityToSell).Div(current.Quantity)
			remaining = append(remaining, lot{
				Date:     current.Date,
				Quantity: current.Quantity.Sub(quantityToSell),
				Cost:     current.Cost.Sub(sold),
			})
			quantityToSell = decimal.Zero
		} else {
			quantityToSell = quantityToSell.Sub(current.Quantity)
		}
	}
	return remaining
}
