package commands

import (
	"fmt"
	"strings"
)

// PickupCodeMessage is sent to the recipient when a parcel is placed.
func PickupCodeMessage(location, code string) string {
	location = strings.TrimSpace(location)
	if location == "" {
		location = "-"
	}
	return fmt.Sprintf("Таны илгээмж бэлэн боллоо!\nБайршил: %s\nКод: %s\n\nSmart Locker", location, code)
}

// PaymentReceivedMessage is sent once a payment settles.
func PaymentReceivedMessage(code string) string {
	return fmt.Sprintf("Таны захиалга амжилттай төлөгдлөө. Код: %s", code)
}
