package bus

// Subscription tells the bus infrastructure which topic should be
// delivered to which ingress route. Served as a static list from
// GET /dapr/subscribe.
type Subscription struct {
	PubSubName string `json:"pubsubname"`
	Topic      string `json:"topic"`
	Route      string `json:"route"`
}
