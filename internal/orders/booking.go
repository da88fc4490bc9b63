package orders

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"orderbackend/internal/apperrors"
	"orderbackend/internal/carrier"
	"orderbackend/internal/models"
	"orderbackend/internal/shipping"
	"orderbackend/internal/store"
)

const (
	skuLength       = 12
	parcelDimension = 10.0
	paymentPrepaid  = "Prepaid"
)

type BookingResult struct {
	OrderID       string             `json:"order_id"`
	OrderStatus   models.OrderStatus `json:"order_status"`
	Carrier       models.CarrierInfo `json:"carrier"`
	AWBAssigned   bool               `json:"awb_assigned"`
	AlreadyBooked bool               `json:"already_booked"`
}

// BookCourier creates the carrier shipment for a paid order and records its AWB.
// An order that already has an AWB is returned unchanged. An order whose carrier
// shipment exists without an AWB only retries the AWB assignment. A carrier order
// recorded without a shipment is never created again; it needs reconciling first.
func (s *Service) BookCourier(ctx context.Context, orderID string) (BookingResult, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return BookingResult{}, err
	}
	logger := s.log(ctx).With("order_id", order.ID.Hex())

	if order.Carrier.HasAWB() {
		return BookingResult{
			OrderID:       order.ID.Hex(),
			OrderStatus:   order.OrderStatus,
			Carrier:       order.Carrier,
			AWBAssigned:   true,
			AlreadyBooked: true,
		}, nil
	}
	if order.PaymentStatus != models.PaymentStatusPaid {
		return BookingResult{}, apperrors.Validation("order is not paid")
	}
	if order.OrderStatus == models.OrderStatusCancelled {
		return BookingResult{}, apperrors.Validation("order is cancelled")
	}

	info := order.Carrier
	now := s.clock()

	if !info.HasShipment() {
		if info.OrderID != nil {
			logger.Warn("carrier order has no shipment, not creating another", "carrier_order_id", *info.OrderID)
			return BookingResult{}, apperrors.Validation(
				"carrier order %s has no shipment; reconcile it with the carrier before booking again", *info.OrderID)
		}
		created, err := s.carrier.CreateOrder(ctx, s.carrierPayload(ctx, order))
		if err != nil {
			logger.Error("carrier order creation failed", "error", err)
			return BookingResult{}, apperrors.Upstream(err, "courier booking failed")
		}
		info.OrderID = optional(created.OrderID.String())
		info.ShipmentID = optional(created.ShipmentID.String())
		logger.Info("carrier order created", "carrier_order_id", created.OrderID, "shipment_id", created.ShipmentID)
	}

	awbAssigned := false
	if info.HasShipment() {
		assignment, err := s.carrier.AssignAWB(ctx, *info.ShipmentID)
		if err != nil {
			logger.Warn("awb assignment failed, shipment kept for retry", "shipment_id", *info.ShipmentID, "error", err)
		} else {
			info.AWBCode = optional(assignment.AWBCode)
			info.CourierName = optional(assignment.CourierName)
			info.TrackingURL = optional(s.carrier.TrackingURL(assignment.AWBCode))
			info.BookedAt = &now
			if etd := s.deliveryEstimate(ctx, order); etd != nil {
				info.ETD = etd
			}
			awbAssigned = true
			logger.Info("awb assigned", "awb_code", assignment.AWBCode, "courier", assignment.CourierName)
		}
	}

	update := models.OrderUpdate{Carrier: &info, UpdatedAt: now}
	if order.OrderStatus == models.OrderStatusConfirmed {
		processing := models.OrderStatusProcessing
		update.OrderStatus = &processing
	}

	updated, err := s.repo.UpdateOrder(ctx, order.ID, update)
	if err != nil {
		return BookingResult{}, apperrors.Internal(err, "failed to record courier booking")
	}

	return BookingResult{
		OrderID:     updated.ID.Hex(),
		OrderStatus: updated.OrderStatus,
		Carrier:     updated.Carrier,
		AWBAssigned: awbAssigned,
	}, nil
}

func (s *Service) carrierPayload(ctx context.Context, order models.Order) carrier.OrderPayload {
	dest := order.Shipping
	first, last := splitName(dest.Name)
	country := dest.Country
	if country == "" {
		country = defaultCountry
	}

	items := make([]carrier.OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, carrier.OrderItem{
			Name:         item.Name,
			SKU:          sku(item.ProductID),
			Units:        item.Quantity,
			SellingPrice: item.Price,
		})
	}

	return carrier.OrderPayload{
		OrderID:             order.ID.Hex(),
		OrderDate:           order.CreatedAt.Format("2006-01-02 15:04"),
		PickupLocation:      s.carrier.PickupLocation(),
		BillingCustomerName: first,
		BillingLastName:     last,
		BillingAddress:      dest.Address,
		BillingCity:         dest.City,
		BillingPincode:      dest.Pincode,
		BillingState:        dest.State,
		BillingCountry:      country,
		BillingEmail:        dest.Email,
		BillingPhone:        dest.Phone,
		ShippingIsBilling:   true,
		OrderItems:          items,
		PaymentMethod:       paymentPrepaid,
		SubTotal:            order.Total,
		Length:              parcelDimension,
		Breadth:             parcelDimension,
		Height:              parcelDimension,
		Weight:              s.orderWeight(ctx, order),
	}
}

func (s *Service) orderWeight(ctx context.Context, order models.Order) float64 {
	lines := make([]shipping.CartLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, shipping.CartLine{ProductID: item.ProductID.Hex(), Quantity: item.Quantity})
	}
	return s.estimates.CartWeight(ctx, lines)
}

// deliveryEstimate quotes the destination for its delivery ETA. A flat-rate
// fallback carries no carrier estimate, so it yields nil.
func (s *Service) deliveryEstimate(ctx context.Context, order models.Order) *string {
	quote, err := s.estimates.Quote(ctx, shipping.Request{
		Pincode:  order.Shipping.Pincode,
		WeightKg: s.orderWeight(ctx, order),
	})
	if err != nil {
		s.log(ctx).Warn("delivery estimate unavailable", "order_id", order.ID.Hex(), "error", err)
		return nil
	}
	if quote.Fallback {
		return nil
	}
	return optional(quote.EstimatedDelivery)
}

type AdminTracking struct {
	OrderID     string             `json:"order_id"`
	OrderStatus models.OrderStatus `json:"order_status"`
	Carrier     models.CarrierInfo `json:"carrier"`
	Live        carrier.Tracking   `json:"live"`
}

// AdminTracking asks the carrier for the live state of an order's shipment and
// stores the carrier's latest ETA on the order.
func (s *Service) AdminTracking(ctx context.Context, orderID string) (AdminTracking, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return AdminTracking{}, err
	}
	if !order.Carrier.HasAWB() {
		return AdminTracking{}, apperrors.Validation("order has no AWB yet")
	}

	live, err := s.carrier.TrackAWB(ctx, *order.Carrier.AWBCode)
	if err != nil {
		s.log(ctx).Warn("carrier tracking failed", "order_id", order.ID.Hex(), "error", err)
		return AdminTracking{}, apperrors.Upstream(err, "carrier tracking unavailable")
	}

	if etd := optional(live.ETD); etd != nil && (order.Carrier.ETD == nil || *order.Carrier.ETD != *etd) {
		info := order.Carrier
		info.ETD = etd
		updated, err := s.repo.UpdateOrder(ctx, order.ID, models.OrderUpdate{Carrier: &info, UpdatedAt: s.clock()})
		if err != nil {
			s.log(ctx).Warn("failed to store carrier eta", "order_id", order.ID.Hex(), "error", err)
		} else {
			order = updated
		}
	}

	return AdminTracking{
		OrderID:     order.ID.Hex(),
		OrderStatus: order.OrderStatus,
		Carrier:     order.Carrier,
		Live:        live,
	}, nil
}

func (s *Service) loadOrder(ctx context.Context, orderID string) (models.Order, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(orderID))
	if err != nil {
		return models.Order{}, apperrors.Validation("invalid order id")
	}
	order, err := s.repo.GetOrder(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Order{}, apperrors.NotFound("order not found")
	}
	if err != nil {
		return models.Order{}, apperrors.Internal(err, "failed to load order")
	}
	return order, nil
}

func sku(id primitive.ObjectID) string {
	hex := id.Hex()
	if len(hex) > skuLength {
		return hex[:skuLength]
	}
	return hex
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
