package db

import "github.com/soleshopapp/soleshop/internal/models"

type Order = models.Order
type OrderLine = models.OrderLine
type OrderStatus = models.OrderStatus

const (
	StatusPendingPayment = models.StatusPendingPayment
	StatusPaid           = models.StatusPaid
	StatusPaymentFailed  = models.StatusPaymentFailed
	StatusExpired        = models.StatusExpired
	StatusShipped        = models.StatusShipped
	StatusDelivered      = models.StatusDelivered
	StatusRefunded       = models.StatusRefunded
)
