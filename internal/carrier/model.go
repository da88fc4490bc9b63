package carrier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// flexString accepts JSON strings and numbers; carrier ids and ETAs come as either.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("cannot decode %s as string or number", string(data))
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) String() string {
	return string(f)
}

// numericOrString sends numeric ids as JSON numbers, which the carrier expects.
func numericOrString(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}

type ServiceabilityRequest struct {
	DeliveryPostcode string
	WeightKg         float64
	COD              bool
}

type CourierOption struct {
	CourierCompanyID      flexString `json:"courier_company_id"`
	CourierName           string     `json:"courier_name"`
	Rate                  float64    `json:"rate"`
	ETD                   flexString `json:"etd"`
	EstimatedDeliveryDays flexString `json:"estimated_delivery_days"`
}

type serviceabilityResponse struct {
	Status int `json:"status"`
	Data   struct {
		AvailableCourierCompanies []CourierOption `json:"available_courier_companies"`
	} `json:"data"`
}

type OrderItem struct {
	Name         string  `json:"name"`
	SKU          string  `json:"sku"`
	Units        int     `json:"units"`
	SellingPrice float64 `json:"selling_price"`
}

// OrderPayload is the carrier's adhoc order-creation body.
type OrderPayload struct {
	OrderID             string      `json:"order_id"`
	OrderDate           string      `json:"order_date"`
	PickupLocation      string      `json:"pickup_location"`
	BillingCustomerName string      `json:"billing_customer_name"`
	BillingLastName     string      `json:"billing_last_name"`
	BillingAddress      string      `json:"billing_address"`
	BillingCity         string      `json:"billing_city"`
	BillingPincode      string      `json:"billing_pincode"`
	BillingState        string      `json:"billing_state"`
	BillingCountry      string      `json:"billing_country"`
	BillingEmail        string      `json:"billing_email"`
	BillingPhone        string      `json:"billing_phone"`
	ShippingIsBilling   bool        `json:"shipping_is_billing"`
	OrderItems          []OrderItem `json:"order_items"`
	PaymentMethod       string      `json:"payment_method"`
	SubTotal            float64     `json:"sub_total"`
	Length              float64     `json:"length"`
	Breadth             float64     `json:"breadth"`
	Height              float64     `json:"height"`
	Weight              float64     `json:"weight"`
}

type CreatedOrder struct {
	OrderID    flexString `json:"order_id"`
	ShipmentID flexString `json:"shipment_id"`
	Status     string     `json:"status"`
}

type AWBAssignment struct {
	AWBCode          string
	CourierName      string
	CourierCompanyID string
}

type awbResponse struct {
	AWBAssignStatus int `json:"awb_assign_status"`
	Response        struct {
		Data struct {
			AWBCode          flexString `json:"awb_code"`
			CourierName      string     `json:"courier_name"`
			CourierCompanyID flexString `json:"courier_company_id"`
		} `json:"data"`
	} `json:"response"`
	Message string `json:"message"`
}

type TrackingActivity struct {
	Date     string `json:"date"`
	Status   string `json:"status"`
	Activity string `json:"activity"`
	Location string `json:"location"`
}

type Tracking struct {
	AWBCode       string             `json:"awb_code"`
	CurrentStatus string             `json:"current_status"`
	ETD           string             `json:"etd"`
	TrackURL      string             `json:"track_url"`
	Activities    []TrackingActivity `json:"activities"`
}

type trackingResponse struct {
	TrackingData struct {
		TrackStatus   int `json:"track_status"`
		ShipmentTrack []struct {
			CurrentStatus string     `json:"current_status"`
			EDD           flexString `json:"edd"`
		} `json:"shipment_track"`
		ShipmentTrackActivities []TrackingActivity `json:"shipment_track_activities"`
		TrackURL                string             `json:"track_url"`
		ETD                     flexString         `json:"etd"`
		Error                   string             `json:"error"`
	} `json:"tracking_data"`
}
