package external

import razorpay "github.com/razorpay/razorpay-go"

func NewRazorpayClient(keyID, keySecret string) *razorpay.Client {
	return razorpay.NewClient(keyID, keySecret)
}
