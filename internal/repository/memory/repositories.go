package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/repository"
)

type userRepository struct {
	view view
	now  func() time.Time
}

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	return r.view.do(func(st *state) error {
		for _, existing := range st.users {
			if strings.EqualFold(existing.Email, user.Email) {
				return repository.ErrDuplicate
			}
		}
		if user.ID == "" {
			user.ID = uuid.NewString()
		}
		now := r.now()
		user.CreatedAt, user.UpdatedAt = now, now
		st.users[user.ID] = *user
		return nil
	})
}

func (r *userRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := r.view.do(func(st *state) error {
		user, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &user
		return nil
	})
	return out, err
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	var out *domain.User
	err := r.view.do(func(st *state) error {
		for _, user := range st.users {
			if strings.EqualFold(user.Email, email) {
				u := user
				out = &u
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

type assetRepository struct {
	view view
	now  func() time.Time
}

func (r *assetRepository) Create(_ context.Context, asset *domain.Asset) error {
	return r.view.do(func(st *state) error {
		if asset.ID == "" {
			asset.ID = uuid.NewString()
		}
		now := r.now()
		asset.CreatedAt, asset.UpdatedAt = now, now
		st.assets[asset.ID] = *asset
		return nil
	})
}

func (r *assetRepository) GetByID(_ context.Context, id string) (*domain.Asset, error) {
	var out *domain.Asset
	err := r.view.do(func(st *state) error {
		asset, ok := st.assets[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &asset
		return nil
	})
	return out, err
}

type ticketRepository struct {
	view view
	now  func() time.Time
}

func (r *ticketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	return r.view.do(func(st *state) error {
		if ticket.ID == "" {
			ticket.ID = uuid.NewString()
		}
		now := r.now()
		ticket.CreatedAt, ticket.UpdatedAt = now, now
		stored := *ticket
		stored.AssetID = cloneString(ticket.AssetID)
		st.tickets[ticket.ID] = stored
		return nil
	})
}

func (r *ticketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	var out *domain.Ticket
	err := r.view.do(func(st *state) error {
		ticket, ok := st.tickets[id]
		if !ok {
			return repository.ErrNotFound
		}
		ticket.AssetID = cloneString(ticket.AssetID)
		out = &ticket
		return nil
	})
	return out, err
}

// GetByIDForUpdate needs no extra locking: transactions are already serialised.
func (r *ticketRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r *ticketRepository) UpdateStatus(_ context.Context, ticket *domain.Ticket) error {
	return r.view.do(func(st *state) error {
		stored, ok := st.tickets[ticket.ID]
		if !ok {
			return repository.ErrNotFound
		}
		stored.Status = ticket.Status
		stored.UpdatedAt = r.now()
		ticket.UpdatedAt = stored.UpdatedAt
		st.tickets[ticket.ID] = stored
		return nil
	})
}

type workOrderRepository struct {
	view view
	now  func() time.Time
}

func (r *workOrderRepository) Create(_ context.Context, wo *domain.WorkOrder) error {
	return r.view.do(func(st *state) error {
		if wo.TicketID != nil {
			for _, existing := range st.workOrders {
				if existing.TicketID != nil && *existing.TicketID == *wo.TicketID {
					return repository.ErrDuplicate
				}
			}
		}
		if wo.ID == "" {
			wo.ID = uuid.NewString()
		}
		now := r.now()
		wo.CreatedAt, wo.UpdatedAt = now, now
		st.workOrders[wo.ID] = cloneWorkOrder(*wo)
		return nil
	})
}

func (r *workOrderRepository) GetByID(_ context.Context, id string) (*domain.WorkOrder, error) {
	var out *domain.WorkOrder
	err := r.view.do(func(st *state) error {
		wo, ok := st.workOrders[id]
		if !ok {
			return repository.ErrNotFound
		}
		c := cloneWorkOrder(wo)
		out = &c
		return nil
	})
	return out, err
}

func (r *workOrderRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.WorkOrder, error) {
	return r.GetByID(ctx, id)
}

func (r *workOrderRepository) GetByTicketID(_ context.Context, ticketID string) (*domain.WorkOrder, error) {
	var out *domain.WorkOrder
	err := r.view.do(func(st *state) error {
		for _, wo := range st.workOrders {
			if wo.TicketID != nil && *wo.TicketID == ticketID {
				c := cloneWorkOrder(wo)
				out = &c
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *workOrderRepository) Update(_ context.Context, wo *domain.WorkOrder) error {
	return r.view.do(func(st *state) error {
		stored, ok := st.workOrders[wo.ID]
		if !ok {
			return repository.ErrNotFound
		}
		updated := cloneWorkOrder(*wo)
		updated.Title, updated.Description = stored.Title, stored.Description
		updated.AssetID, updated.TicketID = stored.AssetID, cloneString(stored.TicketID)
		updated.CreatedAt = stored.CreatedAt
		updated.UpdatedAt = r.now()
		wo.UpdatedAt = updated.UpdatedAt
		st.workOrders[wo.ID] = updated
		return nil
	})
}

func (r *workOrderRepository) AddPart(_ context.Context, part *domain.WorkOrderPart) error {
	return r.view.do(func(st *state) error {
		key := partKey{workOrderID: part.WorkOrderID, partID: part.PartID}
		if _, exists := st.workOrderPart[key]; exists {
			return repository.ErrDuplicate
		}
		st.workOrderPart[key] = *part
		return nil
	})
}

func (r *workOrderRepository) ListParts(_ context.Context, workOrderID string) ([]domain.WorkOrderPart, error) {
	var out []domain.WorkOrderPart
	err := r.view.do(func(st *state) error {
		for key, part := range st.workOrderPart {
			if key.workOrderID == workOrderID {
				out = append(out, part)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].PartID < out[j].PartID })
	return out, err
}

type partRepository struct {
	view view
}

func (r *partRepository) Create(_ context.Context, part *domain.Part) error {
	return r.view.do(func(st *state) error {
		if part.ID == "" {
			part.ID = uuid.NewString()
		}
		st.parts[part.ID] = *part
		return nil
	})
}

func (r *partRepository) GetByID(_ context.Context, id string) (*domain.Part, error) {
	var out *domain.Part
	err := r.view.do(func(st *state) error {
		part, ok := st.parts[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &part
		return nil
	})
	return out, err
}

func (r *partRepository) Decrement(_ context.Context, id string, quantity int) (int, error) {
	var remaining int
	err := r.view.do(func(st *state) error {
		part, ok := st.parts[id]
		if !ok {
			return repository.ErrInsufficientStock
		}
		if part.QuantityOnHand < quantity {
			return repository.ErrInsufficientStock
		}
		part.QuantityOnHand -= quantity
		st.parts[id] = part
		remaining = part.QuantityOnHand
		return nil
	})
	return remaining, err
}

type inventoryRepository struct {
	view view
	now  func() time.Time
}

func (r *inventoryRepository) Append(_ context.Context, txn *domain.InventoryTransaction) error {
	return r.view.do(func(st *state) error {
		txn.ID = uuid.NewString()
		txn.CreatedAt = r.now()
		stored := *txn
		stored.WorkOrderID = cloneString(txn.WorkOrderID)
		st.inventory = append(st.inventory, stored)
		return nil
	})
}

func (r *inventoryRepository) ListByPart(_ context.Context, partID string) ([]domain.InventoryTransaction, error) {
	return r.filter(func(txn domain.InventoryTransaction) bool { return txn.PartID == partID })
}

func (r *inventoryRepository) ListByWorkOrder(_ context.Context, workOrderID string) ([]domain.InventoryTransaction, error) {
	return r.filter(func(txn domain.InventoryTransaction) bool {
		return txn.WorkOrderID != nil && *txn.WorkOrderID == workOrderID
	})
}

func (r *inventoryRepository) filter(match func(domain.InventoryTransaction) bool) ([]domain.InventoryTransaction, error) {
	var out []domain.InventoryTransaction
	err := r.view.do(func(st *state) error {
		for _, txn := range st.inventory {
			if match(txn) {
				txn.WorkOrderID = cloneString(txn.WorkOrderID)
				out = append(out, txn)
			}
		}
		return nil
	})
	return out, err
}

type photoRepository struct {
	view view
	now  func() time.Time
}

func (r *photoRepository) Create(_ context.Context, photo *domain.WorkOrderPhoto) error {
	return r.view.do(func(st *state) error {
		photo.ID = uuid.NewString()
		photo.UploadedAt = r.now()
		st.photos = append(st.photos, *photo)
		return nil
	})
}

func (r *photoRepository) ListByWorkOrder(_ context.Context, workOrderID string) ([]domain.WorkOrderPhoto, error) {
	var out []domain.WorkOrderPhoto
	err := r.view.do(func(st *state) error {
		for _, photo := range st.photos {
			if photo.WorkOrderID == workOrderID {
				out = append(out, photo)
			}
		}
		return nil
	})
	return out, err
}

type feedbackRepository struct {
	view view
	now  func() time.Time
}

func (r *feedbackRepository) Create(_ context.Context, feedback *domain.Feedback) error {
	return r.view.do(func(st *state) error {
		if _, exists := st.feedback[feedback.TicketID]; exists {
			return repository.ErrDuplicate
		}
		feedback.ID = uuid.NewString()
		feedback.CreatedAt = r.now()
		st.feedback[feedback.TicketID] = *feedback
		return nil
	})
}

func (r *feedbackRepository) GetByTicketID(_ context.Context, ticketID string) (*domain.Feedback, error) {
	var out *domain.Feedback
	err := r.view.do(func(st *state) error {
		feedback, ok := st.feedback[ticketID]
		if !ok {
			return repository.ErrNotFound
		}
		out = &feedback
		return nil
	})
	return out, err
}

type statusChangeRepository struct {
	view view
	now  func() time.Time
}

func (r *statusChangeRepository) Create(_ context.Context, change *domain.StatusChange) error {
	return r.view.do(func(st *state) error {
		change.ID = uuid.NewString()
		change.CreatedAt = r.now()
		st.statusChanges = append(st.statusChanges, *change)
		return nil
	})
}

func (r *statusChangeRepository) ListByEntity(_ context.Context, entityType domain.EntityType, entityID string) ([]domain.StatusChange, error) {
	var out []domain.StatusChange
	err := r.view.do(func(st *state) error {
		for _, change := range st.statusChanges {
			if change.EntityType == entityType && change.EntityID == entityID {
				out = append(out, change)
			}
		}
		return nil
	})
	return out, err
}
