package model

// CalculateMA 计算收盘价简单移动平均，前 period-1 个位置数据不足，返回 nil
func CalculateMA(closes []float64, period int) []*float64 {
	out := make([]*float64, len(closes))
	if period <= 0 {
		return out
	}
	var sum float64
	for i, c := range closes {
		sum += c
		if i >= period {
			sum -= closes[i-period]
		}
		if i >= period-1 {
			v := sum / float64(period)
			out[i] = &v
		}
	}
	return out
}

// CalculateTechnicalIndicators 计算 5/10/20/60 日均线
func CalculateTechnicalIndicators(klines []Kline) TechnicalIndicators {
	closes := make([]float64, len(klines))
	for i, k := range klines {
		closes[i] = k.Close
	}
	return TechnicalIndicators{
		MA5:  CalculateMA(closes, 5),
		MA10: CalculateMA(closes, 10),
		MA20: CalculateMA(closes, 20),
		MA60: CalculateMA(closes, 60),
	}
}
