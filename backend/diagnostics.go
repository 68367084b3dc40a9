package backend

import (
	"log"

	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
)

func (b *Backend) debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning | ext_debug_utils.SeverityVerbose,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    logDebugMessage,
	}
}

func (b *Backend) setupDebugMessenger() error {
	if !b.config.Validation {
		return nil
	}

	var err error
	b.debugDriver = ext_debug_utils.CreateExtensionDriverFromCoreDriver(b.instanceDriver)
	b.debugMessenger, _, err = b.debugDriver.CreateDebugUtilsMessenger(nil, b.debugMessengerOptions())
	if err != nil {
		return err
	}

	return nil
}

// logDebugMessage forwards driver diagnostics to the log sink. It never
// requests that the triggering call be aborted.
func logDebugMessage(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	log.Printf("[%s %s] - %s", severity, msgType, data.Message)
	return false
}
