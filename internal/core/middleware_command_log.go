package core

import (
	"log"

	"github.com/google/uuid"
)

// WithCommandLogger tags each run with an invocation ID, logs it and
// records it in the guild's command history.
func WithCommandLogger() Middleware {
	return func(cmd Command) Command {
		return &wrappedCommand{
			Command: cmd,
			wrap: func(ctx interface{}) error {
				v, ok := ctx.(*SlashInteractionContext)
				if !ok {
					return cmd.Run(ctx)
				}

				if v.InvocationID == "" {
					v.InvocationID = uuid.NewString()
				}
				param := CommandParam(v.Event)
				log.Printf("[CMD] /%s %s | guild=%s user=%s id=%s", cmd.Name(), param, v.Event.GuildID, v.Username(), v.InvocationID)

				err := cmd.Run(ctx)
				if err != nil {
					log.Printf("[ERR] /%s failed | id=%s: %v", cmd.Name(), v.InvocationID, err)
				}

				if v.Storage != nil {
					if e := LogCommand(v.Session, v.Storage, v.Event.GuildID, v.Event.ChannelID, v.UserID(), v.Username(), cmd.Name(), param, v.InvocationID); e != nil {
						log.Printf("[WARN] Failed to log command /%s: %v", cmd.Name(), e)
					}
				}
				return err
			},
		}
	}
}
