// pkg/model/stock.go
package model

import (
	"time"
)

// Stock 个股数据
type Stock struct {
	Code           string         `json:"code"`
	Name           string         `json:"name"`
	Price          float64        `json:"price"`
	Change         float64        `json:"change"`
	ChangePercent  float64        `json:"changePercent"`
	Status         Status         `json:"status"`
	Sector         string         `json:"sector"`
	SectorPosition SectorPosition `json:"sectorPosition,omitempty"`
	Tags           []string       `json:"tags"`
	Timestamp      time.Time      `json:"timestamp"`
	Data           *StockData     `json:"data"`
}

// StockData 个股K线及技术指标
type StockData struct {
	Klines              []Kline             `json:"klines"`
	TechnicalIndicators TechnicalIndicators `json:"technicalIndicators"`
}

// Kline K线数据
type Kline struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	Close  float64   `json:"close"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Volume float64   `json:"volume"`
}

// TechnicalIndicators 均线指标，数据不足的位置为 nil
type TechnicalIndicators struct {
	MA5  []*float64 `json:"ma5"`
	MA10 []*float64 `json:"ma10"`
	MA20 []*float64 `json:"ma20"`
	MA60 []*float64 `json:"ma60"`
}
