// pkg/recordstore/schema.go
package recordstore

// 集合名称
const (
	MarketIndices   = "marketIndices"
	Sectors         = "sectors"
	MarketSentiment = "marketSentiment"
	Stocks          = "stocks"
	TradeRecords    = "tradeRecords"
	Strategies      = "strategies"
	Knowledge       = "knowledge"
	UserSettings    = "userSettings"
	ExportHistory   = "exportHistory"
	SharedExports   = "sharedExports"
)

// IndexSchema 二级索引定义，MultiEntry 表示字段为数组，按元素建立索引
type IndexSchema struct {
	Name       string
	KeyPath    string
	MultiEntry bool
}

// Schema 集合定义
type Schema struct {
	Name          string
	KeyPath       string
	AutoIncrement bool
	Indexes       []IndexSchema
}

// Index 按名称查找索引
func (s Schema) Index(name string) (IndexSchema, bool) {
	for _, idx := range s.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexSchema{}, false
}

func idx(name string) IndexSchema { return IndexSchema{Name: name, KeyPath: name} }

func multi(name string) IndexSchema { return IndexSchema{Name: name, KeyPath: name, MultiEntry: true} }

// DefaultSchemas 所有集合的定义
func DefaultSchemas() []Schema {
	return []Schema{
		{Name: MarketIndices, KeyPath: "code", Indexes: []IndexSchema{idx("timestamp")}},
		{Name: Sectors, KeyPath: "code", Indexes: []IndexSchema{idx("name"), idx("timestamp"), idx("stage")}},
		{Name: MarketSentiment, KeyPath: "date"},
		{Name: Stocks, KeyPath: "code", Indexes: []IndexSchema{idx("name"), idx("sector"), idx("timestamp"), multi("tags")}},
		{Name: TradeRecords, KeyPath: "id", AutoIncrement: true, Indexes: []IndexSchema{idx("stockCode"), idx("date"), idx("type")}},
		{Name: Strategies, KeyPath: "id", AutoIncrement: true, Indexes: []IndexSchema{idx("date"), idx("type")}},
		{Name: Knowledge, KeyPath: "id", AutoIncrement: true, Indexes: []IndexSchema{idx("title"), idx("createdAt"), multi("tags")}},
		{Name: UserSettings, KeyPath: "id"},
		{Name: ExportHistory, KeyPath: "id", AutoIncrement: true, Indexes: []IndexSchema{idx("date"), idx("type"), idx("format")}},
		{Name: SharedExports, KeyPath: "id", AutoIncrement: true, Indexes: []IndexSchema{idx("originalId"), idx("sharedAt"), idx("expiresAt"), idx("token")}},
	}
}
