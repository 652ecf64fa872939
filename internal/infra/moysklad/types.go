package moysklad

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Meta is the entity metadata envelope used throughout the MoySklad JSON API.
type Meta struct {
	Href      string `json:"href"`
	Type      string `json:"type"`
	MediaType string `json:"mediaType"`
}

// NewMeta builds a Meta for an entity href.
func NewMeta(href, typ string) Meta {
	return Meta{Href: href, Type: typ, MediaType: "application/json"}
}

type metaEnvelope struct {
	Meta Meta `json:"meta"`
}

// Moment is a timestamp in the API's "YYYY-MM-DD HH:MM:SS" convention,
// rendered in UTC.
type Moment time.Time

func (m Moment) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(m).UTC().Format("2006-01-02 15:04:05"))
}

type listMeta struct {
	Size   int `json:"size"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type rowList struct {
	Meta listMeta    `json:"meta"`
	Rows []entityRow `json:"rows"`
}

// entityRow covers the fields this sync reads from catalog entities and
// documents alike; absent fields stay zero.
type entityRow struct {
	ID         string      `json:"id"`
	Meta       Meta        `json:"meta"`
	Name       string      `json:"name"`
	Article    string      `json:"article"`
	SalePrices []salePrice `json:"salePrices"`
}

type salePrice struct {
	Value     decimal.Decimal `json:"value"`
	PriceType *priceType      `json:"priceType"`
}

func (p salePrice) label() string {
	if p.PriceType == nil {
		return ""
	}
	return p.PriceType.Name
}

type priceType struct {
	Name string `json:"name"`
}

type componentList struct {
	Meta listMeta       `json:"meta"`
	Rows []componentRow `json:"rows"`
}

type componentRow struct {
	Quantity   float64       `json:"quantity"`
	Assortment *metaEnvelope `json:"assortment"`
}

type position struct {
	Quantity   int          `json:"quantity"`
	Price      int64        `json:"price"`
	Assortment metaEnvelope `json:"assortment"`
}

type customerOrderBody struct {
	Name                  string       `json:"name"`
	Description           string       `json:"description,omitempty"`
	Organization          metaEnvelope `json:"organization"`
	Agent                 metaEnvelope `json:"agent"`
	Store                 metaEnvelope `json:"store"`
	SalesChannel          metaEnvelope `json:"salesChannel"`
	State                 metaEnvelope `json:"state"`
	DeliveryPlannedMoment *Moment      `json:"deliveryPlannedMoment,omitempty"`
	Positions             []position   `json:"positions"`
}

type moveBody struct {
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	Organization  metaEnvelope  `json:"organization"`
	SourceStore   metaEnvelope  `json:"sourceStore"`
	TargetStore   metaEnvelope  `json:"targetStore"`
	CustomerOrder *metaEnvelope `json:"customerOrder,omitempty"`
	Applicable    *bool         `json:"applicable,omitempty"`
	Positions     []position    `json:"positions"`
}

type createdResponse struct {
	ID   string `json:"id"`
	Meta Meta   `json:"meta"`
}
