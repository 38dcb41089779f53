package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Ananth-NQI/restobot-backend/internal/config"
)

// Intent is what a message means when no reservation dialogue is active
type Intent int

const (
	IntentUnrecognized Intent = iota
	IntentShowMenu
	IntentShowPromo
	IntentShowHours
	IntentShowAddress
	IntentShowOrderLinks
	IntentShowPhone
	IntentStartReservation
)

func (i Intent) String() string {
	switch i {
	case IntentShowMenu:
		return "show_menu"
	case IntentShowPromo:
		return "show_promo"
	case IntentShowHours:
		return "show_hours"
	case IntentShowAddress:
		return "show_address"
	case IntentShowOrderLinks:
		return "show_order_links"
	case IntentShowPhone:
		return "show_phone"
	case IntentStartReservation:
		return "start_reservation"
	default:
		return "unrecognized"
	}
}

// Keyword markers
const (
	KeywordMenu        = "เมนู"
	KeywordPromo       = "โปร"
	KeywordHours       = "เปิด"
	KeywordAddress     = "ที่อยู่"
	KeywordOrder       = "สั่ง"
	KeywordPhone       = "เบอร์"
	KeywordReservation = "จอง"
)

// intentKeywords is checked in order; the first contained marker wins.
var intentKeywords = []struct {
	keyword string
	intent  Intent
}{
	{KeywordMenu, IntentShowMenu},
	{KeywordPromo, IntentShowPromo},
	{KeywordHours, IntentShowHours},
	{KeywordAddress, IntentShowAddress},
	{KeywordOrder, IntentShowOrderLinks},
	{KeywordPhone, IntentShowPhone},
	{KeywordReservation, IntentStartReservation},
}

// HelpMessage lists the keywords the bot understands.
const HelpMessage = "สวัสดีครับ พิมพ์: เมนู | จองโต๊ะ | โปร | เปิด | ที่อยู่ | สั่ง | เบอร์โทร"

// Classify maps free text to an intent. It depends on text alone.
func Classify(text string) Intent {
	for _, k := range intentKeywords {
		if strings.Contains(text, k.keyword) {
			return k.intent
		}
	}
	return IntentUnrecognized
}

// CommandRouter answers informational intents from restaurant content
type CommandRouter struct {
	restaurant *config.Restaurant
}

// NewCommandRouter creates a router over read-only restaurant content
func NewCommandRouter(restaurant *config.Restaurant) *CommandRouter {
	return &CommandRouter{restaurant: restaurant}
}

// Classify is the package Classify, exposed on the router for callers holding one.
func (r *CommandRouter) Classify(text string) Intent {
	return Classify(text)
}

// Answer renders the reply for an intent. StartReservation is owned by the
// conversation and gets the help text here.
func (r *CommandRouter) Answer(intent Intent) string {
	switch intent {
	case IntentShowMenu:
		return r.menu()
	case IntentShowPromo:
		return r.restaurant.PromoText
	case IntentShowHours:
		return r.restaurant.Hours
	case IntentShowAddress:
		return r.restaurant.Address
	case IntentShowOrderLinks:
		return r.orderLinks()
	case IntentShowPhone:
		return r.restaurant.Phone
	default:
		return HelpMessage
	}
}

func (r *CommandRouter) menu() string {
	lines := make([]string, 0, len(r.restaurant.TopMenu))
	for _, item := range r.restaurant.TopMenu {
		lines = append(lines, fmt.Sprintf("%s %s %s บาท", item.Emoji, item.Name, formatPrice(item.Price)))
	}
	return strings.Join(lines, "\n")
}

func (r *CommandRouter) orderLinks() string {
	if r.restaurant.OrderLinks == nil {
		return ""
	}
	lines := make([]string, 0, r.restaurant.OrderLinks.Len())
	for pair := r.restaurant.OrderLinks.Oldest(); pair != nil; pair = pair.Next() {
		lines = append(lines, fmt.Sprintf("%s: %s", pair.Key, pair.Value))
	}
	return strings.Join(lines, "\n")
}

// formatPrice prints 60 as "60" and 55.5 as "55.5".
func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
