package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var ErrRestaurantNameRequired = errors.New("restaurant_name is required")

// MenuItem is one line of the top menu.
type MenuItem struct {
	Emoji string  `json:"emoji"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Restaurant is the static content the bot answers from. It is read once at
// startup and never mutated.
type Restaurant struct {
	Name       string                                 `json:"restaurant_name"`
	TopMenu    []MenuItem                             `json:"top_menu"`
	PromoText  string                                 `json:"promo_text"`
	Hours      string                                 `json:"hours"`
	Address    string                                 `json:"address"`
	OrderLinks *orderedmap.OrderedMap[string, string] `json:"order_links"`
	Phone      string                                 `json:"phone"`
}

// LoadRestaurant reads the restaurant content file.
func LoadRestaurant(path string) (*Restaurant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read restaurant config: %w", err)
	}
	return ParseRestaurant(data)
}

// ParseRestaurant decodes restaurant content, keeping order_links in file order.
func ParseRestaurant(data []byte) (*Restaurant, error) {
	var r Restaurant
	if err := sonic.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode restaurant config: %w", err)
	}
	if r.Name == "" {
		return nil, ErrRestaurantNameRequired
	}
	if r.OrderLinks == nil {
		r.OrderLinks = orderedmap.New[string, string]()
	}
	return &r, nil
}
